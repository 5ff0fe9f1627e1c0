package plant

import (
	"math"
	"testing"
	"time"

	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/species"
)

func TestApplyFertilizerPreferredAbsorbsBetter(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)

	pl.ApplyFertilizer(species.FertilizerNitrogen, 50)
	if math.Abs(pl.Nutrient-60) > eps {
		t.Errorf("preferred nutrient = %v, want 60", pl.Nutrient)
	}
	if pl.FertilizerRemaining != 12*time.Hour {
		t.Errorf("nitrogen duration = %v, want 12h", pl.FertilizerRemaining)
	}

	// Re-applying replaces, not accumulates.
	pl.ApplyFertilizer(species.FertilizerCompost, 50)
	if math.Abs(pl.Nutrient-50) > eps {
		t.Errorf("mismatched nutrient = %v, want 50", pl.Nutrient)
	}
	if pl.FertilizerRemaining != 24*time.Hour {
		t.Errorf("compost duration = %v, want 24h", pl.FertilizerRemaining)
	}
}

func TestApplyFertilizerClampsAt100(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.ApplyFertilizer(species.FertilizerNitrogen, 90) // ×1.2 would be 108
	if pl.Nutrient != 100 {
		t.Errorf("nutrient = %v, want clamped to 100", pl.Nutrient)
	}
}

func TestApplyFertilizerRejectsNoneAndZero(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.ApplyFertilizer(species.FertilizerNone, 50)
	pl.ApplyFertilizer(species.FertilizerNitrogen, 0)
	if pl.Nutrient != 0 || pl.Fertilizer != species.FertilizerNone {
		t.Errorf("state changed: nutrient=%v fertilizer=%v", pl.Nutrient, pl.Fertilizer)
	}
}

func TestFertilizerBoost(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)

	if got := pl.FertilizerBoost(); got != 1.0 {
		t.Errorf("unfertilized boost = %v, want 1.0", got)
	}

	pl.ApplyFertilizer(species.FertilizerNitrogen, 50)
	if got := pl.FertilizerBoost(); math.Abs(got-1.5) > eps {
		t.Errorf("preferred boost = %v, want 1.5", got)
	}

	pl.ApplyFertilizer(species.FertilizerCompost, 50)
	if got := pl.FertilizerBoost(); math.Abs(got-1.5*0.8) > eps {
		t.Errorf("mismatched boost = %v, want %v", got, 1.5*0.8)
	}
}

func TestTickNutrientDepletes(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.ApplyFertilizer(species.FertilizerNitrogen, 50)
	before := pl.Nutrient

	// Depletion rate scales with light: 0.002 × (1 + 500/2000).
	env := environment.Reading{Temperature: 22, Humidity: 60, Light: 500}
	pl.TickNutrient(env, 0, 1)

	want := before - 0.002*1.25
	if math.Abs(pl.Nutrient-want) > eps {
		t.Errorf("nutrient after tick = %v, want %v", pl.Nutrient, want)
	}
	if pl.FertilizerRemaining != 12*time.Hour-time.Second {
		t.Errorf("remaining = %v, want 12h-1s", pl.FertilizerRemaining)
	}
}

func TestTickNutrientGreenhouseSlower(t *testing.T) {
	env := environment.Reading{Temperature: 22, Humidity: 60, Light: 500}

	ground := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	ground.ApplyFertilizer(species.FertilizerNitrogen, 50)
	gh := New(mustProfile(t, "tomato"), environment.LocationGreenHouse, testNow)
	gh.ApplyFertilizer(species.FertilizerNitrogen, 50)

	ground.TickNutrient(env, 0, 1)
	gh.TickNutrient(env, 0, 1)

	groundLoss := 60 - ground.Nutrient
	ghLoss := 60 - gh.Nutrient
	if math.Abs(ghLoss-groundLoss*0.6) > eps {
		t.Errorf("greenhouse loss = %v, want 0.6 × %v", ghLoss, groundLoss)
	}
}

func TestTickNutrientRainLeaches(t *testing.T) {
	env := environment.Reading{Temperature: 22, Humidity: 60, Light: 0}

	dryRun := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	dryRun.ApplyFertilizer(species.FertilizerNitrogen, 50)
	wetRun := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	wetRun.ApplyFertilizer(species.FertilizerNitrogen, 50)

	dryRun.TickNutrient(env, 0, 1)
	wetRun.TickNutrient(env, 4, 1)

	if wetRun.Nutrient >= dryRun.Nutrient {
		t.Errorf("rain did not speed depletion: wet=%v dry=%v", wetRun.Nutrient, dryRun.Nutrient)
	}
}

func TestFertilizerExpires(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.ApplyFertilizer(species.FertilizerNitrogen, 50)
	pl.Nutrient = 0.0001
	pl.FertilizerRemaining = time.Second

	env := environment.Reading{Temperature: 22, Humidity: 60, Light: 500}
	pl.TickNutrient(env, 0, 1)

	if pl.Nutrient != 0 {
		t.Errorf("nutrient = %v, want floored at 0", pl.Nutrient)
	}
	if pl.FertilizerRemaining != 0 {
		t.Errorf("remaining = %v, want 0", pl.FertilizerRemaining)
	}
	if pl.Fertilizer != species.FertilizerNone {
		t.Errorf("fertilizer = %v, want cleared", pl.Fertilizer)
	}
	if got := pl.FertilizerBoost(); got != 1.0 {
		t.Errorf("expired boost = %v, want 1.0", got)
	}
}
