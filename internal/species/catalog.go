// Builtin species catalog. Profiles are validated once at package init;
// a bad entry here is a programming error, not a runtime condition.
package species

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/talgya/greenhaven/internal/environment"
)

var builtin = []*Profile{
	{
		Name:                  "tomato",
		PreferredFertilizer:   FertilizerNitrogen,
		FertilizerGrowthBoost: 1.5,
		NutrientDepletionRate: 0.002,
		EvaporationRate:       0.1,
		Default: Tolerance{
			Temperature: Band{Min: 15, Max: 30},
			Humidity:    Band{Min: 40, Max: 70},
			Light:       Band{Min: 200, Max: 800},
		},
		OptimalMoisture:   60,
		MoistureTolerance: 20,
		Weights:           Weights{Temperature: 0.35, Humidity: 0.3, Light: 0.25, Water: 0.1},
		InitialScale:      0.1,
		DefaultMaxScale:   1.0,
		Overrides: map[environment.Location]LocationOverride{
			environment.LocationGreenHouse: {
				Tolerance: Tolerance{
					Temperature: Band{Min: 18, Max: 32},
					Humidity:    Band{Min: 55, Max: 85},
					Light:       Band{Min: 250, Max: 900},
				},
				MaxScale: 1.2,
			},
			environment.LocationHouse: {
				Tolerance: Tolerance{
					Temperature: Band{Min: 16, Max: 26},
					Humidity:    Band{Min: 30, Max: 60},
					Light:       Band{Min: 150, Max: 650},
				},
				MaxScale: 0.8,
			},
		},
	},
	{
		Name:                  "fern",
		PreferredFertilizer:   FertilizerCompost,
		FertilizerGrowthBoost: 1.3,
		NutrientDepletionRate: 0.001,
		EvaporationRate:       0.15,
		Default: Tolerance{
			Temperature: Band{Min: 10, Max: 24},
			Humidity:    Band{Min: 55, Max: 90},
			Light:       Band{Min: 50, Max: 400},
		},
		OptimalMoisture:   70,
		MoistureTolerance: 15,
		Weights:           Weights{Temperature: 0.2, Humidity: 0.4, Light: 0.15, Water: 0.25},
		InitialScale:      0.08,
		DefaultMaxScale:   0.7,
		Overrides: map[environment.Location]LocationOverride{
			environment.LocationHouse: {
				Tolerance: Tolerance{
					Temperature: Band{Min: 15, Max: 25},
					Humidity:    Band{Min: 35, Max: 65},
					Light:       Band{Min: 50, Max: 500},
				},
				MaxScale: 0.9,
			},
		},
	},
	{
		Name:                  "cactus",
		PreferredFertilizer:   FertilizerPhosphate,
		FertilizerGrowthBoost: 1.2,
		NutrientDepletionRate: 0.0005,
		EvaporationRate:       0.04,
		Default: Tolerance{
			Temperature: Band{Min: 18, Max: 40},
			Humidity:    Band{Min: 10, Max: 40},
			Light:       Band{Min: 400, Max: 1100},
		},
		OptimalMoisture:   25,
		MoistureTolerance: 15,
		Weights:           Weights{Temperature: 0.35, Humidity: 0.15, Light: 0.4, Water: 0.1},
		InitialScale:      0.05,
		DefaultMaxScale:   0.5,
		Overrides: map[environment.Location]LocationOverride{
			environment.LocationGround: {
				Tolerance: Tolerance{
					Temperature: Band{Min: 15, Max: 42},
					Humidity:    Band{Min: 5, Max: 45},
					Light:       Band{Min: 350, Max: 1200},
				},
				MaxScale: 0.6,
			},
		},
	},
	{
		Name:                  "basil",
		PreferredFertilizer:   FertilizerNitrogen,
		FertilizerGrowthBoost: 1.4,
		NutrientDepletionRate: 0.0025,
		EvaporationRate:       0.12,
		Default: Tolerance{
			Temperature: Band{Min: 18, Max: 32},
			Humidity:    Band{Min: 40, Max: 65},
			Light:       Band{Min: 250, Max: 900},
		},
		OptimalMoisture:   55,
		MoistureTolerance: 20,
		Weights:           Weights{Temperature: 0.3, Humidity: 0.25, Light: 0.3, Water: 0.15},
		InitialScale:      0.06,
		DefaultMaxScale:   0.45,
		Overrides: map[environment.Location]LocationOverride{
			environment.LocationGreenHouse: {
				Tolerance: Tolerance{
					Temperature: Band{Min: 20, Max: 34},
					Humidity:    Band{Min: 50, Max: 80},
					Light:       Band{Min: 300, Max: 1000},
				},
				MaxScale: 0.55,
			},
		},
	},
}

var byName = map[string]*Profile{}

func init() {
	for _, p := range builtin {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("builtin species catalog: %v", err))
		}
		byName[p.Name] = p
	}
}

// Builtin returns all builtin species profiles.
func Builtin() []*Profile {
	out := make([]*Profile, len(builtin))
	copy(out, builtin)
	return out
}

// Lookup returns the profile for an exact species name.
func Lookup(name string) (*Profile, bool) {
	p, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Match resolves a possibly misspelled species name. Exact matches win;
// otherwise the closest catalog name within the edit-distance limit is used.
func Match(name string) (*Profile, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if p, ok := byName[name]; ok {
		return p, true
	}
	var best *Profile
	bestDist := 0
	for _, p := range builtin {
		dist := levenshtein.ComputeDistance(name, p.Name)
		if dist > matchLimit(len(p.Name)) {
			continue
		}
		if best == nil || dist < bestDist {
			best = p
			bestDist = dist
		}
	}
	return best, best != nil
}

// matchLimit scales the allowed edit distance with the candidate length so
// short names don't match everything.
func matchLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
