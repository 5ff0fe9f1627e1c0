// Moisture balance: gains from precipitation, irrigation fixtures, and
// manual watering; losses from humidity-deficit evaporation.
package plant

import "github.com/talgya/greenhaven/internal/environment"

// Per-second moisture gain rates on the 0–100 scale.
const (
	precipitationGain = 5.0  // × mm/hour of rain, open ground only
	irrigationRate    = 0.05 // greenhouse drip irrigation
	sprinklerRate     = 0.06 // ground sprinklers
)

// greenhouseEvapDamping slows evaporation under glass.
const greenhouseEvapDamping = 0.5

// AddWater adds moisture directly (manual watering can), clamped to 100.
func (pl *Instance) AddWater(amount float64) {
	pl.Moisture = environment.Clamp(pl.Moisture+amount, 0, 100)
}

// TickWater advances the moisture balance by dt seconds.
func (pl *Instance) TickWater(env environment.Reading, precipitation float64, toggles environment.Toggles, dt float64) {
	// Rain only reaches plants in the open.
	if pl.Location == environment.LocationGround && precipitation > 0 {
		pl.Moisture += precipitation * precipitationGain * dt
	}

	switch pl.Location {
	case environment.LocationGreenHouse:
		if toggles.Irrigation {
			pl.Moisture += irrigationRate * dt
		}
	case environment.LocationGround:
		if toggles.Sprinklers {
			pl.Moisture += sprinklerRate * dt
		}
	}
	if pl.Moisture > 100 {
		pl.Moisture = 100
	}

	// Evaporation: dry air below the species' humidity comfort pulls
	// moisture out of the soil proportionally to the deficit.
	minHumidity := pl.Tolerance().Humidity.Min
	if minHumidity > 0 && env.Humidity < minHumidity {
		deficit := (minHumidity - env.Humidity) / minHumidity
		damping := 1.0
		if pl.Location == environment.LocationGreenHouse {
			damping = greenhouseEvapDamping
		}
		pl.Moisture -= deficit * pl.Species.EvaporationRate * damping * dt
		if pl.Moisture < 0 {
			pl.Moisture = 0
		}
	}
}

// EffectiveMoisture is the moisture reading the growth and disease models
// consume: stored soil moisture plus a bounded contribution from ambient
// humidity. Humidity inside the species' [min,max] band maps linearly to
// [0,20] extra units. Stored moisture is never mutated by this.
func (pl *Instance) EffectiveMoisture(effHumidity float64) float64 {
	band := pl.Tolerance().Humidity
	contribution := environment.Clamp(environment.InverseLerp(band.Min, band.Max, effHumidity), 0, 1) * 20
	return min(pl.Moisture+contribution, 100)
}
