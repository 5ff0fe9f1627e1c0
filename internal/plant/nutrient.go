// Fertilizer application, nutrient decay, and the growth boost it yields.
package plant

import (
	"time"

	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/species"
)

// mismatchPenalty reduces the boost when the applied fertilizer is not the
// species' preferred type.
const mismatchPenalty = 0.8

// ApplyFertilizer sets the nutrient level from the applied amount and starts
// the decay timer for the fertilizer's effect duration. Re-applying replaces
// the previous application outright.
func (pl *Instance) ApplyFertilizer(ft species.FertilizerType, amount float64) {
	if ft == species.FertilizerNone || amount <= 0 {
		return
	}
	base := amount
	if ft == pl.Species.PreferredFertilizer {
		// The preferred formulation is absorbed more completely.
		base = amount * 1.2
	}
	pl.Nutrient = environment.Clamp(base, 0, 100)
	pl.Fertilizer = ft
	pl.FertilizerRemaining = ft.EffectDuration()
}

// TickNutrient advances nutrient decay by dt seconds. Strong light and rain
// speed depletion (photosynthesis draw and leaching); greenhouse plantings
// deplete slower.
func (pl *Instance) TickNutrient(env environment.Reading, precipitation float64, dt float64) {
	if pl.Nutrient <= 0 && pl.FertilizerRemaining <= 0 {
		return
	}

	rate := pl.Species.NutrientDepletionRate
	rate *= 1 + env.Light/2000
	rate *= 1 + precipitation*0.05
	if pl.Location == environment.LocationGreenHouse {
		rate *= 0.6
	}

	pl.Nutrient -= rate * dt
	if pl.Nutrient < 0 {
		pl.Nutrient = 0
	}

	pl.FertilizerRemaining -= time.Duration(dt * float64(time.Second))
	if pl.FertilizerRemaining <= 0 {
		pl.FertilizerRemaining = 0
		if pl.Nutrient <= 0 {
			pl.Fertilizer = species.FertilizerNone
		}
	}
}

// FertilizerBoost returns the growth multiplier from the active fertilizer:
// the species' full boost for its preferred type, a reduced boost for a
// mismatched type, and 1.0 once depleted.
func (pl *Instance) FertilizerBoost() float64 {
	if pl.Nutrient <= 0 || pl.FertilizerRemaining <= 0 || pl.Fertilizer == species.FertilizerNone {
		return 1.0
	}
	if pl.Fertilizer == pl.Species.PreferredFertilizer {
		return pl.Species.FertilizerGrowthBoost
	}
	return pl.Species.FertilizerGrowthBoost * mismatchPenalty
}
