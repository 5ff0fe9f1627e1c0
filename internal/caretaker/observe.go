// Package caretaker implements the autonomous garden steward.
// It observes garden state via the simulation API, triages plants by
// urgency with deterministic rules, and acts via the control endpoints.
package caretaker

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GardenSnapshot holds all data collected during an observation cycle.
type GardenSnapshot struct {
	Status  GardenStatus
	Plants  []PlantInfo
	Toggles map[string]ToggleState
}

// GardenStatus mirrors GET /api/v1/status.
type GardenStatus struct {
	Tick        uint64  `json:"tick"`
	SimTime     string  `json:"sim_time"`
	Speed       float64 `json:"speed"`
	Running     bool    `json:"running"`
	Replaying   bool    `json:"replaying"`
	Plants      int     `json:"plants"`
	FullyGrown  int     `json:"fully_grown"`
	Diseased    int     `json:"diseased"`
	AvgScale    float64 `json:"avg_scale"`
	AvgMoisture float64 `json:"avg_moisture"`
}

// PlantInfo mirrors items from GET /api/v1/plants, enriched with cure data
// from the detail endpoint for diseased plants.
type PlantInfo struct {
	ID              string  `json:"id"`
	Species         string  `json:"species"`
	Location        string  `json:"location"`
	Scale           float64 `json:"scale"`
	MaxScale        float64 `json:"max_scale"`
	ReachedMaxScale bool    `json:"reached_max_scale"`
	Moisture        float64 `json:"moisture"`
	Nutrient        float64 `json:"nutrient"`
	Disease         string  `json:"disease"`
	DiseaseProgress float64 `json:"disease_progress"`

	Cures        []string `json:"cures"`
	PartialCures []string `json:"partial_cures"`
}

// ToggleState mirrors entries from GET /api/v1/toggles.
type ToggleState struct {
	Lights     bool `json:"lights"`
	AirCon     bool `json:"air_con"`
	Fans       bool `json:"fans"`
	Irrigation bool `json:"irrigation"`
	Sprinklers bool `json:"sprinklers"`
}

// Observer fetches garden state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the garden snapshot. Diseased plants get a second fetch
// for their cure lists.
func (o *Observer) Observe() (*GardenSnapshot, error) {
	snap := &GardenSnapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/plants", &snap.Plants); err != nil {
		return nil, fmt.Errorf("fetch plants: %w", err)
	}
	if err := o.fetchJSON("/api/v1/toggles", &snap.Toggles); err != nil {
		return nil, fmt.Errorf("fetch toggles: %w", err)
	}

	for i := range snap.Plants {
		if snap.Plants[i].Disease == "" || snap.Plants[i].Disease == "none" {
			continue
		}
		var detail PlantInfo
		if err := o.fetchJSON("/api/v1/plant/"+snap.Plants[i].ID, &detail); err != nil {
			return nil, fmt.Errorf("fetch plant %s: %w", snap.Plants[i].ID, err)
		}
		snap.Plants[i].Cures = detail.Cures
		snap.Plants[i].PartialCures = detail.PartialCures
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
