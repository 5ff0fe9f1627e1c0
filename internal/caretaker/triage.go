package caretaker

import "sort"

// Urgency levels, highest first.
const (
	UrgencyCritical = 3
	UrgencyWarning  = 2
	UrgencyWatch    = 1
)

// Moisture thresholds on the 0–100 scale.
const (
	moistureCritical = 25
	moistureLow      = 45
	moistureSoaked   = 85
)

// Action is one control-plane operation the caretaker wants to perform.
type Action struct {
	Kind    string // "water", "cure", "fertilize", "toggle"
	Urgency int
	Reason  string

	// water / cure / fertilize
	PlantID string
	Amount  float64
	Item    string // cure item or fertilizer type

	// toggle
	Location string
	Fixture  string
	On       bool
}

// Triage derives a prioritized action list from a snapshot. Deterministic:
// same snapshot, same plan.
func Triage(snap *GardenSnapshot) []Action {
	var actions []Action

	dryByLocation := map[string]int{}

	for _, p := range snap.Plants {
		// Disease beats everything: untreated cases compound.
		if p.Disease != "" && p.Disease != "none" && len(p.Cures) > 0 {
			urgency := UrgencyWarning
			if p.DiseaseProgress > 0.5 {
				urgency = UrgencyCritical
			}
			actions = append(actions, Action{
				Kind:    "cure",
				Urgency: urgency,
				Reason:  "diseased: " + p.Disease,
				PlantID: p.ID,
				Item:    p.Cures[0],
			})
		}

		switch {
		case p.Moisture < moistureCritical:
			dryByLocation[p.Location]++
			actions = append(actions, Action{
				Kind:    "water",
				Urgency: UrgencyCritical,
				Reason:  "critically dry",
				PlantID: p.ID,
				Amount:  40,
			})
		case p.Moisture < moistureLow:
			dryByLocation[p.Location]++
			actions = append(actions, Action{
				Kind:    "water",
				Urgency: UrgencyWatch,
				Reason:  "drying out",
				PlantID: p.ID,
				Amount:  20,
			})
		}

		if p.Nutrient <= 0 && !p.ReachedMaxScale {
			actions = append(actions, Action{
				Kind:    "fertilize",
				Urgency: UrgencyWatch,
				Reason:  "nutrients depleted",
				PlantID: p.ID,
				Item:    preferredFertilizer(p.Species),
				Amount:  50,
			})
		}
	}

	// Fixture-level irrigation: when a location has several dry plants,
	// flip its watering fixture on instead of hand-watering forever.
	if dryByLocation["greenhouse"] >= 2 && !snap.Toggles["greenhouse"].Irrigation {
		actions = append(actions, Action{
			Kind:     "toggle",
			Urgency:  UrgencyWarning,
			Reason:   "multiple dry greenhouse plants",
			Location: "greenhouse",
			Fixture:  "irrigation",
			On:       true,
		})
	}
	if dryByLocation["ground"] >= 2 && !snap.Toggles["ground"].Sprinklers {
		actions = append(actions, Action{
			Kind:     "toggle",
			Urgency:  UrgencyWarning,
			Reason:   "multiple dry ground plants",
			Location: "ground",
			Fixture:  "sprinklers",
			On:       true,
		})
	}

	// Shut watering fixtures off once everything in the location is soaked.
	if snap.Toggles["greenhouse"].Irrigation && allMoistureAbove(snap, "greenhouse", moistureSoaked) {
		actions = append(actions, Action{
			Kind:     "toggle",
			Urgency:  UrgencyWatch,
			Reason:   "greenhouse saturated",
			Location: "greenhouse",
			Fixture:  "irrigation",
			On:       false,
		})
	}
	if snap.Toggles["ground"].Sprinklers && allMoistureAbove(snap, "ground", moistureSoaked) {
		actions = append(actions, Action{
			Kind:     "toggle",
			Urgency:  UrgencyWatch,
			Reason:   "ground saturated",
			Location: "ground",
			Fixture:  "sprinklers",
			On:       false,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Urgency > actions[j].Urgency
	})
	return actions
}

func allMoistureAbove(snap *GardenSnapshot, location string, threshold float64) bool {
	any := false
	for _, p := range snap.Plants {
		if p.Location != location {
			continue
		}
		any = true
		if p.Moisture <= threshold {
			return false
		}
	}
	return any
}

// preferredFertilizer maps species to the fertilizer the caretaker reaches
// for. Kept in sync with GET /api/v1/species; nitrogen is the safe default.
func preferredFertilizer(speciesName string) string {
	switch speciesName {
	case "fern":
		return "compost"
	case "cactus":
		return "phosphate"
	default:
		return "nitrogen"
	}
}
