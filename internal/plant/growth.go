// Growth-factor formula and the bounded scale update.
package plant

import (
	"math"

	"github.com/talgya/greenhaven/internal/environment"
)

// BaseGrowthRate is the scale gain per second at a perfect weighted factor
// of 1.0 with no disease or fertilizer. Roughly a day from seedling to a
// mature scale of 1 under ideal conditions.
const BaseGrowthRate = 5e-7

// Factor is the triangular membership of x in [min, max]: 1.0 at the band
// midpoint, decaying linearly and symmetrically toward (and beyond) the
// bounds, clamped to [0,1]. Values outside the band contribute zero but the
// decay is continuous — there is no discontinuity at the bounds.
func Factor(min, max, x float64) float64 {
	inv := environment.InverseLerp(min, max, x)
	return environment.Clamp(1-2*math.Abs(inv-0.5), 0, 1)
}

// GrowthModifier computes the scale-units-per-second growth rate for this
// tick from the effective environment, the effective moisture, and the
// plant's disease and fertilizer multipliers.
func (pl *Instance) GrowthModifier(env environment.Reading, effMoisture float64) float64 {
	tol := pl.Tolerance()
	moist := pl.Species.MoistureBand()
	w := pl.Species.Weights

	weighted := w.Temperature*Factor(tol.Temperature.Min, tol.Temperature.Max, env.Temperature) +
		w.Humidity*Factor(tol.Humidity.Min, tol.Humidity.Max, env.Humidity) +
		w.Light*Factor(tol.Light.Min, tol.Light.Max, env.Light) +
		w.Water*Factor(moist.Min, moist.Max, effMoisture)

	return BaseGrowthRate * weighted * pl.Disease.Multiplier() * pl.FertilizerBoost()
}

// ChangeScale applies a growth modifier over dt seconds. No-op when the
// plant is unplanted or already pinned at max scale. Returns true exactly
// once: on the tick the plant reaches its location's max scale.
func (pl *Instance) ChangeScale(growthModifier, dt float64) (reachedMax bool) {
	if !pl.Planted || pl.ReachedMaxScale {
		return false
	}
	maxScale := pl.MaxScale()
	candidate := pl.Scale + growthModifier*dt
	if candidate >= maxScale {
		pl.Scale = maxScale
		pl.ReachedMaxScale = true
		return true
	}
	pl.Scale = candidate
	return false
}
