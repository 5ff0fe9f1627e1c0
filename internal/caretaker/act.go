package caretaker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Actor executes actions via the control-plane API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Act dispatches one action to the matching control endpoint.
func (a *Actor) Act(action Action) error {
	switch action.Kind {
	case "water":
		return a.post("/api/v1/water", map[string]any{
			"id": action.PlantID, "amount": action.Amount,
		})
	case "cure":
		return a.post("/api/v1/cure", map[string]any{
			"id": action.PlantID, "item": action.Item,
		})
	case "fertilize":
		return a.post("/api/v1/fertilize", map[string]any{
			"id": action.PlantID, "type": action.Item, "amount": action.Amount,
		})
	case "toggle":
		return a.post("/api/v1/toggle", map[string]any{
			"location": action.Location, "fixture": action.Fixture, "on": action.On,
		})
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func (a *Actor) post(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, string(respBody))
	}
	return nil
}
