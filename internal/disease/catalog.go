// Per-species disease tables. Each species gets three candidate diseases in
// priority order; predicates read the effective environment sample.
package disease

var catalog = map[string]Definition{
	"tomato": {
		Species: "tomato",
		Candidates: []Candidate{
			{
				Name:            "blight",
				Trigger:         func(s Sample) bool { return s.Humidity > 75 && s.Moisture > 70 },
				Probability:     0.15,
				Progresses:      func(s Sample) bool { return s.Humidity > 65 },
				ProgressionRate: 0.1,
				PenaltyFloor:    0.2,
				Cures:           []string{"copper_fungicide"},
				PartialCures:    []string{"pruning_shears"},
			},
			{
				Name:            "blossom_end_rot",
				Trigger:         func(s Sample) bool { return s.Moisture < 30 && s.Temperature > 28 },
				Probability:     0.1,
				Progresses:      func(s Sample) bool { return s.Moisture < 45 },
				ProgressionRate: 0.08,
				PenaltyFloor:    0.4,
				Cures:           []string{"calcium_spray"},
			},
			{
				Name:            "leaf_curl",
				Trigger:         func(s Sample) bool { return s.Temperature > 34 && s.Light > 900 },
				Probability:     0.08,
				Progresses:      func(s Sample) bool { return s.Temperature > 30 },
				ProgressionRate: 0.05,
				PenaltyFloor:    0.6,
				Cures:           []string{"shade_cloth"},
				PartialCures:    []string{"watering_can"},
			},
		},
	},
	"fern": {
		Species: "fern",
		Candidates: []Candidate{
			{
				Name:            "root_rot",
				Trigger:         func(s Sample) bool { return s.Moisture > 85 },
				Probability:     0.2,
				Progresses:      func(s Sample) bool { return s.Moisture > 70 },
				ProgressionRate: 0.12,
				PenaltyFloor:    0.15,
				Cures:           []string{"repot_kit"},
				PartialCures:    []string{"pruning_shears"},
			},
			{
				Name:            "leaf_scorch",
				Trigger:         func(s Sample) bool { return s.Light > 600 || s.Humidity < 35 },
				Probability:     0.12,
				Progresses:      func(s Sample) bool { return s.Light > 450 },
				ProgressionRate: 0.07,
				PenaltyFloor:    0.5,
				Cures:           []string{"shade_cloth"},
			},
			{
				Name:            "spider_mites",
				Trigger:         func(s Sample) bool { return s.Humidity < 40 && s.Temperature > 24 },
				Probability:     0.1,
				Progresses:      func(s Sample) bool { return s.Humidity < 50 },
				ProgressionRate: 0.06,
				PenaltyFloor:    0.55,
				Cures:           []string{"neem_oil"},
				PartialCures:    []string{"misting_bottle"},
			},
		},
	},
	"cactus": {
		Species: "cactus",
		Candidates: []Candidate{
			{
				Name:            "stem_rot",
				Trigger:         func(s Sample) bool { return s.Moisture > 55 },
				Probability:     0.25,
				Progresses:      func(s Sample) bool { return s.Moisture > 40 },
				ProgressionRate: 0.15,
				PenaltyFloor:    0.1,
				Cures:           []string{"repot_kit"},
			},
			{
				Name:            "etiolation",
				Trigger:         func(s Sample) bool { return s.Light < 300 },
				Probability:     0.15,
				Progresses:      func(s Sample) bool { return s.Light < 400 },
				ProgressionRate: 0.05,
				PenaltyFloor:    0.5,
				Cures:           []string{"grow_lamp"},
			},
			{
				Name:            "frost_damage",
				Trigger:         func(s Sample) bool { return s.Temperature < 8 },
				Probability:     0.3,
				Progresses:      func(s Sample) bool { return s.Temperature < 14 },
				ProgressionRate: 0.2,
				PenaltyFloor:    0.2,
				Cures:           []string{"heat_mat"},
				PartialCures:    []string{"frost_blanket"},
			},
		},
	},
	"basil": {
		Species: "basil",
		Candidates: []Candidate{
			{
				Name:            "downy_mildew",
				Trigger:         func(s Sample) bool { return s.Humidity > 70 && s.Light < 400 },
				Probability:     0.18,
				Progresses:      func(s Sample) bool { return s.Humidity > 60 },
				ProgressionRate: 0.1,
				PenaltyFloor:    0.25,
				Cures:           []string{"copper_fungicide"},
				PartialCures:    []string{"pruning_shears"},
			},
			{
				Name:            "fusarium_wilt",
				Trigger:         func(s Sample) bool { return s.Temperature > 30 && s.Moisture > 65 },
				Probability:     0.1,
				Progresses:      func(s Sample) bool { return s.Temperature > 26 },
				ProgressionRate: 0.12,
				PenaltyFloor:    0.2,
				Cures:           []string{"repot_kit"},
			},
			{
				Name:            "aphids",
				Trigger:         func(s Sample) bool { return s.Temperature > 20 && s.Temperature < 30 && s.Humidity > 50 },
				Probability:     0.12,
				Progresses:      func(s Sample) bool { return true },
				ProgressionRate: 0.08,
				PenaltyFloor:    0.45,
				Cures:           []string{"neem_oil", "ladybugs"},
				PartialCures:    []string{"soap_spray"},
			},
		},
	},
}

// ForSpecies returns the disease definition for a species. Species without
// an entry get an empty definition: they simply never fall ill.
func ForSpecies(name string) Definition {
	if def, ok := catalog[name]; ok {
		return def
	}
	return Definition{Species: name}
}

// CureItems returns the full and partial cure item identifiers for the named
// disease of a species. Used by the API to advertise treatments.
func CureItems(speciesName, diseaseName string) (full, partial []string) {
	def := ForSpecies(speciesName)
	for i := range def.Candidates {
		if def.Candidates[i].Name == diseaseName {
			return def.Candidates[i].Cures, def.Candidates[i].PartialCures
		}
	}
	return nil, nil
}
