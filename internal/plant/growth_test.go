package plant

import (
	"math"
	"testing"
	"time"

	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/species"
)

const eps = 1e-9

var testNow = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func mustProfile(t *testing.T, name string) *species.Profile {
	t.Helper()
	p, ok := species.Lookup(name)
	if !ok {
		t.Fatalf("species %q missing from catalog", name)
	}
	return p
}

func TestFactorMidpoint(t *testing.T) {
	if got := Factor(15, 30, 22.5); math.Abs(got-1.0) > eps {
		t.Errorf("Factor at midpoint = %v, want 1.0", got)
	}
}

func TestFactorBoundsAndBeyond(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{15, 0},     // lower bound
		{30, 0},     // upper bound
		{10, 0},     // below band
		{40, 0},     // above band
		{18.75, 0.5}, // quarter point
		{26.25, 0.5}, // three-quarter point
	}
	for _, tt := range tests {
		if got := Factor(15, 30, tt.x); math.Abs(got-tt.want) > eps {
			t.Errorf("Factor(15, 30, %v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestFactorSymmetric(t *testing.T) {
	for _, d := range []float64{0.5, 1, 3, 5.2, 7.5} {
		lo := Factor(15, 30, 22.5-d)
		hi := Factor(15, 30, 22.5+d)
		if math.Abs(lo-hi) > eps {
			t.Errorf("Factor asymmetric at ±%v: %v vs %v", d, lo, hi)
		}
	}
}

func TestFactorMonotonicTowardMidpoint(t *testing.T) {
	prev := -1.0
	for x := 15.0; x <= 22.5; x += 0.5 {
		got := Factor(15, 30, x)
		if got < prev {
			t.Fatalf("Factor decreased approaching midpoint: f(%v) = %v < %v", x, got, prev)
		}
		prev = got
	}
}

func TestGrowthModifierIdealConditions(t *testing.T) {
	// All four factors at their band midpoints: the weighted sum is exactly
	// the weight total, which is 1.0 for tomato.
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	env := environment.Reading{Temperature: 22.5, Humidity: 55, Light: 500}

	got := pl.GrowthModifier(env, 60)
	if math.Abs(got-BaseGrowthRate) > BaseGrowthRate*1e-9 {
		t.Errorf("ideal growth modifier = %v, want %v", got, BaseGrowthRate)
	}
}

func TestGrowthModifierZeroOutsideBands(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	env := environment.Reading{Temperature: -20, Humidity: 5, Light: 2000}

	if got := pl.GrowthModifier(env, 0); got != 0 {
		t.Errorf("growth modifier outside all bands = %v, want 0", got)
	}
}

func TestGrowthModifierDiseasePenalty(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	env := environment.Reading{Temperature: 22.5, Humidity: 55, Light: 500}

	healthy := pl.GrowthModifier(env, 60)
	pl.Disease.SlowFactor = 0.5
	sick := pl.GrowthModifier(env, 60)

	if math.Abs(sick-healthy*0.5) > eps {
		t.Errorf("diseased modifier = %v, want half of %v", sick, healthy)
	}
}

func TestChangeScaleZeroDeltaIsIdempotent(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	before := pl.Scale
	if pl.ChangeScale(0, 1) {
		t.Error("zero growth reported reaching max scale")
	}
	if pl.Scale != before {
		t.Errorf("scale changed with zero modifier: %v -> %v", before, pl.Scale)
	}
}

func TestChangeScaleUnplantedNoop(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.Reset(testNow)
	before := pl.Scale
	if pl.ChangeScale(1.0, 1) {
		t.Error("unplanted plant reported growth")
	}
	if pl.Scale != before {
		t.Errorf("unplanted scale changed: %v -> %v", before, pl.Scale)
	}
}

func TestChangeScalePinsAtMax(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	maxScale := pl.MaxScale()

	// A huge modifier overshoots; the scale must pin exactly at the cap and
	// the milestone must fire exactly once.
	if !pl.ChangeScale(maxScale*10, 1) {
		t.Fatal("expected the plant to reach max scale")
	}
	if pl.Scale != maxScale {
		t.Errorf("scale = %v, want pinned at %v", pl.Scale, maxScale)
	}
	if !pl.ReachedMaxScale {
		t.Error("ReachedMaxScale not set")
	}
	if pl.ChangeScale(maxScale*10, 1) {
		t.Error("milestone reported twice")
	}
	if pl.Scale != maxScale {
		t.Errorf("pinned scale moved to %v", pl.Scale)
	}
}

func TestScaleMonotonicNonDecreasing(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	env := environment.Reading{Temperature: 22.5, Humidity: 55, Light: 500}

	prev := pl.Scale
	for i := 0; i < 1000; i++ {
		mod := pl.GrowthModifier(env, 60)
		pl.ChangeScale(mod, 1)
		if pl.Scale < prev {
			t.Fatalf("scale decreased at step %d: %v -> %v", i, prev, pl.Scale)
		}
		prev = pl.Scale
	}
}

func TestMaxScalePerLocation(t *testing.T) {
	tomato := mustProfile(t, "tomato")
	tests := []struct {
		loc  environment.Location
		want float64
	}{
		{environment.LocationGround, 1.0},
		{environment.LocationHouse, 0.8},
		{environment.LocationGreenHouse, 1.2},
	}
	for _, tt := range tests {
		pl := New(tomato, tt.loc, testNow)
		if got := pl.MaxScale(); got != tt.want {
			t.Errorf("tomato max scale at %s = %v, want %v", tt.loc, got, tt.want)
		}
	}
}
