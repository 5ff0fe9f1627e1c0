// Package plant holds the mutable per-plant state and the moisture,
// nutrient, and growth models that update it each tick.
package plant

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/greenhaven/internal/disease"
	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/species"
)

// Instance is one planted plant. Instances are pooled: harvesting resets one
// to seedling state for reuse rather than destroying it.
type Instance struct {
	ID       uuid.UUID
	Species  *species.Profile
	Location environment.Location
	Planted  bool

	// Scale is monotonically non-decreasing until the instance is reset.
	// It never exceeds the species' max scale for the current location;
	// once ReachedMaxScale is set the scale is pinned and growth stops.
	Scale           float64
	ReachedMaxScale bool

	Moisture float64 // 0–100

	Nutrient            float64
	Fertilizer          species.FertilizerType
	FertilizerRemaining time.Duration

	Disease *disease.Engine
}

// New creates a planted seedling of the given species at a location.
func New(p *species.Profile, loc environment.Location, now time.Time) *Instance {
	inst := &Instance{
		ID:      uuid.New(),
		Species: p,
	}
	inst.Replant(p, loc, now)
	return inst
}

// Replant re-initializes a pooled instance for a fresh seed.
func (pl *Instance) Replant(p *species.Profile, loc environment.Location, now time.Time) {
	pl.Species = p
	pl.Location = loc
	pl.Planted = true
	pl.Scale = p.InitialScale
	pl.ReachedMaxScale = false
	pl.Moisture = p.OptimalMoisture
	pl.Nutrient = 0
	pl.Fertilizer = species.FertilizerNone
	pl.FertilizerRemaining = 0
	pl.Disease = disease.NewEngine(disease.ForSpecies(p.Name), now)
}

// Reset returns the instance to unplanted storage state after a harvest.
func (pl *Instance) Reset(now time.Time) {
	pl.Planted = false
	pl.Scale = pl.Species.InitialScale
	pl.ReachedMaxScale = false
	pl.Moisture = 0
	pl.Nutrient = 0
	pl.Fertilizer = species.FertilizerNone
	pl.FertilizerRemaining = 0
	pl.Disease = disease.NewEngine(disease.ForSpecies(pl.Species.Name), now)
}

// MaxScale returns the species' scale cap at the plant's current location.
func (pl *Instance) MaxScale() float64 {
	return pl.Species.MaxScaleAt(pl.Location)
}

// Tolerance returns the tolerance band for the plant's current location.
func (pl *Instance) Tolerance() species.Tolerance {
	return pl.Species.ToleranceAt(pl.Location)
}

// Sample bundles the plant's view of the environment for disease predicates.
func (pl *Instance) Sample(env environment.Reading) disease.Sample {
	return disease.Sample{
		Moisture:    pl.EffectiveMoisture(env.Humidity),
		Humidity:    env.Humidity,
		Light:       env.Light,
		Temperature: env.Temperature,
	}
}
