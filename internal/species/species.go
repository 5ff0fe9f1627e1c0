// Package species defines the immutable per-species growing profiles the
// simulation is parameterized by: tolerance bands, growth-factor weights,
// fertilizer preferences, and per-location overrides.
package species

import (
	"fmt"
	"time"

	"github.com/talgya/greenhaven/internal/environment"
)

// FertilizerType enumerates the fertilizers a player can apply.
type FertilizerType uint8

const (
	FertilizerNone FertilizerType = iota
	FertilizerCompost
	FertilizerNitrogen
	FertilizerPhosphate
)

// String returns the fertilizer name used in persistence and the API.
func (f FertilizerType) String() string {
	switch f {
	case FertilizerCompost:
		return "compost"
	case FertilizerNitrogen:
		return "nitrogen"
	case FertilizerPhosphate:
		return "phosphate"
	default:
		return "none"
	}
}

// FertilizerFromString parses a fertilizer name.
func FertilizerFromString(s string) (FertilizerType, bool) {
	switch s {
	case "none":
		return FertilizerNone, true
	case "compost":
		return FertilizerCompost, true
	case "nitrogen":
		return FertilizerNitrogen, true
	case "phosphate":
		return FertilizerPhosphate, true
	default:
		return FertilizerNone, false
	}
}

// EffectDuration returns how long one application of this fertilizer keeps
// working. Slow-release compost lasts a full day; mineral fertilizers burn
// off faster.
func (f FertilizerType) EffectDuration() time.Duration {
	switch f {
	case FertilizerCompost:
		return 24 * time.Hour
	case FertilizerNitrogen:
		return 12 * time.Hour
	case FertilizerPhosphate:
		return 8 * time.Hour
	default:
		return 0
	}
}

// Band is an inclusive [Min, Max] range for one environmental variable.
type Band struct {
	Min float64
	Max float64
}

// Mid returns the band midpoint — the value a species thrives at.
func (b Band) Mid() float64 { return (b.Min + b.Max) / 2 }

// Width returns Max - Min.
func (b Band) Width() float64 { return b.Max - b.Min }

// Tolerance groups the environmental bands a species tolerates.
type Tolerance struct {
	Temperature Band
	Humidity    Band
	Light       Band
}

// Weights are the four growth-factor weights. They must sum to a positive
// value; the weighted sum is what feeds the growth modifier, so they are
// normalized implicitly rather than required to total 1.
type Weights struct {
	Temperature float64
	Humidity    float64
	Light       float64
	Water       float64
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Temperature + w.Humidity + w.Light + w.Water
}

// LocationOverride replaces the default tolerance band and caps the maximum
// scale a species reaches at one location.
type LocationOverride struct {
	Tolerance Tolerance
	MaxScale  float64
}

// Profile is the immutable growing profile for one species.
type Profile struct {
	Name                  string
	PreferredFertilizer   FertilizerType
	FertilizerGrowthBoost float64 // growth multiplier while fertilized
	NutrientDepletionRate float64 // nutrient units per second
	EvaporationRate       float64 // moisture units per second at full deficit

	Default           Tolerance
	OptimalMoisture   float64 // 0–100
	MoistureTolerance float64 // ± range around the optimum
	Weights           Weights

	InitialScale    float64
	DefaultMaxScale float64
	Overrides       map[environment.Location]LocationOverride
}

// MoistureBand returns the tolerance band around the optimal moisture level.
func (p *Profile) MoistureBand() Band {
	return Band{Min: p.OptimalMoisture - p.MoistureTolerance, Max: p.OptimalMoisture + p.MoistureTolerance}
}

// ToleranceAt returns the tolerance band for a location, falling back to the
// species default when no override exists.
func (p *Profile) ToleranceAt(loc environment.Location) Tolerance {
	if o, ok := p.Overrides[loc]; ok {
		return o.Tolerance
	}
	return p.Default
}

// MaxScaleAt returns the maximum scale the species reaches at a location.
func (p *Profile) MaxScaleAt(loc environment.Location) float64 {
	if o, ok := p.Overrides[loc]; ok && o.MaxScale > 0 {
		return o.MaxScale
	}
	return p.DefaultMaxScale
}

// Validate enforces the data contract the core assumes. Profiles must be
// validated once at load time; the tick path never re-checks them.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("species profile missing name")
	}
	if p.Weights.Sum() <= 0 {
		return fmt.Errorf("species %q: growth weights must sum to a positive value", p.Name)
	}
	for _, b := range []struct {
		name string
		band Band
	}{
		{"temperature", p.Default.Temperature},
		{"humidity", p.Default.Humidity},
		{"light", p.Default.Light},
		{"moisture", p.MoistureBand()},
	} {
		if b.band.Width() <= 0 {
			return fmt.Errorf("species %q: zero-width %s band", p.Name, b.name)
		}
	}
	if p.OptimalMoisture < 0 || p.OptimalMoisture > 100 {
		return fmt.Errorf("species %q: optimal moisture %v outside [0,100]", p.Name, p.OptimalMoisture)
	}
	if p.InitialScale <= 0 || p.DefaultMaxScale <= p.InitialScale {
		return fmt.Errorf("species %q: scale range [%v, %v] invalid", p.Name, p.InitialScale, p.DefaultMaxScale)
	}
	for loc, o := range p.Overrides {
		if o.Tolerance.Temperature.Width() <= 0 || o.Tolerance.Humidity.Width() <= 0 || o.Tolerance.Light.Width() <= 0 {
			return fmt.Errorf("species %q: zero-width override band at %s", p.Name, loc)
		}
	}
	return nil
}
