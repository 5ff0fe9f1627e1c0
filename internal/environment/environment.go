// Package environment maps raw outdoor weather plus per-location fixture
// state to the effective light, humidity, and temperature a plant experiences.
// All functions here are pure — fixture state is owned by the simulation and
// passed in by value.
package environment

import "golang.org/x/exp/constraints"

// Location identifies where a plant is growing.
type Location uint8

const (
	LocationGround Location = iota
	LocationHouse
	LocationGreenHouse
)

// String returns a human-readable location name.
func (l Location) String() string {
	switch l {
	case LocationGround:
		return "ground"
	case LocationHouse:
		return "house"
	case LocationGreenHouse:
		return "greenhouse"
	default:
		return "unknown"
	}
}

// LocationFromString parses a location name. Returns false for unknown names.
func LocationFromString(s string) (Location, bool) {
	switch s {
	case "ground":
		return LocationGround, true
	case "house":
		return LocationHouse, true
	case "greenhouse":
		return LocationGreenHouse, true
	default:
		return 0, false
	}
}

// Locations lists all location types in a stable order.
func Locations() []Location {
	return []Location{LocationGround, LocationHouse, LocationGreenHouse}
}

// Toggles holds the controllable fixture state for one location.
// Not every fixture exists everywhere: the house has lights and air
// conditioning, the greenhouse has lights, fans, and irrigation, and open
// ground has lights and sprinklers. Flags for fixtures a location lacks are
// ignored by the effective-value formulas, and outdoor readings always pass
// through open ground unchanged: ground lights are decorative, too weak to
// register against daylight-scale radiation.
type Toggles struct {
	Lights     bool `json:"lights"`
	AirCon     bool `json:"air_con"`
	Fans       bool `json:"fans"`
	Irrigation bool `json:"irrigation"`
	Sprinklers bool `json:"sprinklers"`
}

// Outdoor is a raw weather sample.
type Outdoor struct {
	Temperature   float64 // °C
	Humidity      float64 // relative humidity, %
	Light         float64 // direct + diffuse radiation, W/m²
	Precipitation float64 // mm/hour
}

// Reading is the effective environment at one location after fixtures and
// insulation are applied.
type Reading struct {
	Temperature float64
	Humidity    float64
	Light       float64
}

// Fixed design parameters of the location formulas. The indoor values model
// insulation (outdoor swings are damped) and fixtures (grow lights add a
// flat 500 W/m² equivalent).
const (
	houseBaseTemp      = 22.0
	houseTempCoupling  = 0.5
	houseACCooling     = 4.0
	houseACHumidityMul = 0.7
	houseHumidityLo    = 30.0
	houseHumidityHi    = 60.0
	houseLightLeak     = 0.3

	greenhouseTempGain   = 5.0
	greenhouseFanCooling = 5.0
	greenhouseHumidityLo = 60.0
	greenhouseHumidityHi = 90.0
	greenhouseLightPass  = 0.8

	growLightOutput = 500.0
)

// EffectiveTemperature returns the temperature at a location given the
// outdoor temperature and the location's fixture state.
func EffectiveTemperature(loc Location, outdoorTemp float64, t Toggles) float64 {
	switch loc {
	case LocationHouse:
		temp := houseBaseTemp + (outdoorTemp-20)*houseTempCoupling
		if t.AirCon {
			temp -= houseACCooling
		}
		return temp
	case LocationGreenHouse:
		temp := outdoorTemp + greenhouseTempGain
		if t.Fans {
			temp -= greenhouseFanCooling
		}
		return temp
	default:
		return outdoorTemp
	}
}

// EffectiveHumidity returns the relative humidity at a location.
func EffectiveHumidity(loc Location, outdoorHumidity float64, t Toggles) float64 {
	switch loc {
	case LocationHouse:
		h := Lerp(houseHumidityLo, houseHumidityHi, outdoorHumidity/100)
		if t.AirCon {
			h *= houseACHumidityMul
		}
		return h
	case LocationGreenHouse:
		return Lerp(greenhouseHumidityLo, greenhouseHumidityHi, outdoorHumidity/100)
	default:
		return outdoorHumidity
	}
}

// EffectiveLight returns the light level at a location.
func EffectiveLight(loc Location, outdoorLight float64, t Toggles) float64 {
	switch loc {
	case LocationHouse:
		light := outdoorLight * houseLightLeak
		if t.Lights {
			light += growLightOutput
		}
		return light
	case LocationGreenHouse:
		light := outdoorLight * greenhouseLightPass
		if t.Lights {
			light += growLightOutput
		}
		return light
	default:
		// Open ground: outdoor radiation passes through unchanged.
		return outdoorLight
	}
}

// Effective bundles all three effective values for a location.
func Effective(loc Location, o Outdoor, t Toggles) Reading {
	return Reading{
		Temperature: EffectiveTemperature(loc, o.Temperature, t),
		Humidity:    EffectiveHumidity(loc, o.Humidity, t),
		Light:       EffectiveLight(loc, o.Light, t),
	}
}

// Lerp linearly interpolates between a and b by t.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// InverseLerp returns where x sits between a and b, unclamped:
// 0 at a, 1 at b, values outside [0,1] beyond the bounds.
func InverseLerp(a, b, x float64) float64 {
	return (x - a) / (b - a)
}

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
