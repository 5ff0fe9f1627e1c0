// Synthetic weather from layered simplex noise: independent noise streams
// for temperature, humidity, and rain layered over a diurnal cycle. Fully
// deterministic given the seed and a timestamp, which is what makes
// fast-forward replays reproducible offline.
package weather

import (
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Synthetic generates plausible outdoor weather without any network access.
type Synthetic struct {
	tempNoise opensimplex.Noise
	humNoise  opensimplex.Noise
	rainNoise opensimplex.Noise
	epoch     time.Time
}

// NewSynthetic creates a deterministic generator. Samples depend only on the
// seed and the duration since epoch.
func NewSynthetic(seed int64, epoch time.Time) *Synthetic {
	return &Synthetic{
		tempNoise: opensimplex.NewNormalized(seed),
		humNoise:  opensimplex.NewNormalized(seed + 1),
		rainNoise: opensimplex.NewNormalized(seed + 2),
		epoch:     epoch,
	}
}

// Observe derives the weather sample for a simulated timestamp.
func (g *Synthetic) Observe(at time.Time) (*Observation, error) {
	hours := at.Sub(g.epoch).Hours()

	// Fraction of the day in [0,1), 0 = midnight at epoch.
	dayFrac := hours / 24
	dayFrac -= math.Floor(dayFrac)

	// Diurnal curve peaking mid-afternoon.
	diurnal := math.Sin(2 * math.Pi * (dayFrac - 0.29))

	temp := 14 + 8*diurnal + 10*(octaveNoise(g.tempNoise, hours/72, 3, 1, 0.5)-0.5)

	humidity := 55 - 15*diurnal + 40*(octaveNoise(g.humNoise, hours/48, 3, 1, 0.5)-0.5)
	humidity = math.Min(math.Max(humidity, 5), 100)

	// Rain falls only when the rain field crosses a threshold, so most
	// hours are dry.
	rainField := octaveNoise(g.rainNoise, hours/36, 2, 1, 0.5)
	precipitation := 0.0
	if rainField > 0.68 {
		precipitation = (rainField - 0.68) * 25 // up to ~8 mm/h
	}

	// Daylight radiation: zero at night, up to ~950 W/m² at a clear noon,
	// attenuated by rain clouds.
	daylight := math.Max(0, math.Sin(2*math.Pi*(dayFrac-0.25)))
	radiation := 950 * daylight
	if precipitation > 0 {
		radiation *= 0.35
	}

	return &Observation{
		Temperature:   temp,
		Humidity:      humidity,
		Precipitation: precipitation,
		Radiation:     radiation,
	}, nil
}

// octaveNoise layers 1-D noise at increasing frequencies.
func octaveNoise(noise opensimplex.Noise, x float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, 0) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
