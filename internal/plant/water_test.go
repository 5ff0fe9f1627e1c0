package plant

import (
	"math"
	"testing"

	"github.com/talgya/greenhaven/internal/environment"
)

// comfortable is a reading inside every tomato humidity band, so
// evaporation never triggers in tests that aren't about evaporation.
var comfortable = environment.Reading{Temperature: 22, Humidity: 60, Light: 400}

func TestAddWaterClamps(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.Moisture = 90
	pl.AddWater(40)
	if pl.Moisture != 100 {
		t.Errorf("moisture = %v, want clamped to 100", pl.Moisture)
	}
	pl.AddWater(-200)
	if pl.Moisture != 0 {
		t.Errorf("moisture = %v, want clamped to 0", pl.Moisture)
	}
}

func TestPrecipitationReachesGroundOnly(t *testing.T) {
	for _, tt := range []struct {
		loc  environment.Location
		gain float64
	}{
		{environment.LocationGround, 2 * 5.0}, // 2 mm/h × gain rate
		{environment.LocationHouse, 0},
		{environment.LocationGreenHouse, 0},
	} {
		pl := New(mustProfile(t, "tomato"), tt.loc, testNow)
		pl.Moisture = 50
		pl.TickWater(comfortable, 2, environment.Toggles{}, 1)
		if got := pl.Moisture - 50; math.Abs(got-tt.gain) > eps {
			t.Errorf("%s precip gain = %v, want %v", tt.loc, got, tt.gain)
		}
	}
}

func TestIrrigationAndSprinklers(t *testing.T) {
	gh := New(mustProfile(t, "tomato"), environment.LocationGreenHouse, testNow)
	gh.Moisture = 50
	gh.TickWater(comfortable, 0, environment.Toggles{Irrigation: true}, 1)
	if got := gh.Moisture - 50; math.Abs(got-0.05) > eps {
		t.Errorf("greenhouse irrigation gain = %v, want 0.05", got)
	}

	ground := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	ground.Moisture = 50
	ground.TickWater(comfortable, 0, environment.Toggles{Sprinklers: true}, 1)
	if got := ground.Moisture - 50; math.Abs(got-0.06) > eps {
		t.Errorf("ground sprinkler gain = %v, want 0.06", got)
	}

	// A sprinkler flag means nothing inside the greenhouse, and vice versa.
	gh2 := New(mustProfile(t, "tomato"), environment.LocationGreenHouse, testNow)
	gh2.Moisture = 50
	gh2.TickWater(comfortable, 0, environment.Toggles{Sprinklers: true}, 1)
	if gh2.Moisture != 50 {
		t.Errorf("greenhouse gained %v from sprinklers", gh2.Moisture-50)
	}
}

func TestEvaporationProportionalToDeficit(t *testing.T) {
	// Tomato tolerates 40-70% humidity on open ground. At 20% the deficit is
	// (40-20)/40 = 0.5, so the loss is 0.5 × evaporation rate per second.
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.Moisture = 50
	dry := environment.Reading{Temperature: 22, Humidity: 20, Light: 400}

	pl.TickWater(dry, 0, environment.Toggles{}, 1)
	want := 50 - 0.5*0.1
	if math.Abs(pl.Moisture-want) > eps {
		t.Errorf("moisture after dry tick = %v, want %v", pl.Moisture, want)
	}
}

func TestGreenhouseEvaporationDamped(t *testing.T) {
	// Greenhouse tomato band is 55-85%; half deficit at 27.5%, then halved
	// again by the glass.
	pl := New(mustProfile(t, "tomato"), environment.LocationGreenHouse, testNow)
	pl.Moisture = 50
	dry := environment.Reading{Temperature: 22, Humidity: 27.5, Light: 400}

	pl.TickWater(dry, 0, environment.Toggles{}, 1)
	want := 50 - 0.5*0.1*0.5
	if math.Abs(pl.Moisture-want) > eps {
		t.Errorf("greenhouse moisture after dry tick = %v, want %v", pl.Moisture, want)
	}
}

func TestMoistureStaysInRange(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.Moisture = 99
	pl.TickWater(comfortable, 10, environment.Toggles{Sprinklers: true}, 1)
	if pl.Moisture != 100 {
		t.Errorf("moisture = %v, want capped at 100", pl.Moisture)
	}

	pl.Moisture = 0.01
	veryDry := environment.Reading{Temperature: 22, Humidity: 0, Light: 400}
	pl.TickWater(veryDry, 0, environment.Toggles{}, 1)
	if pl.Moisture != 0 {
		t.Errorf("moisture = %v, want floored at 0", pl.Moisture)
	}
}

func TestEffectiveMoistureHumidityContribution(t *testing.T) {
	pl := New(mustProfile(t, "tomato"), environment.LocationGround, testNow)
	pl.Moisture = 50

	tests := []struct {
		humidity, want float64
	}{
		{40, 50},  // at band min: no contribution
		{55, 60},  // midpoint: half of the 20-unit cap
		{70, 70},  // at band max: full contribution
		{95, 70},  // beyond the band: still capped
		{10, 50},  // below the band: none
	}
	for _, tt := range tests {
		if got := pl.EffectiveMoisture(tt.humidity); math.Abs(got-tt.want) > eps {
			t.Errorf("EffectiveMoisture(humidity=%v) = %v, want %v", tt.humidity, got, tt.want)
		}
	}

	// The reading never exceeds 100 and never mutates stored moisture.
	pl.Moisture = 95
	if got := pl.EffectiveMoisture(70); got != 100 {
		t.Errorf("EffectiveMoisture = %v, want capped at 100", got)
	}
	if pl.Moisture != 95 {
		t.Errorf("stored moisture mutated to %v", pl.Moisture)
	}
}
