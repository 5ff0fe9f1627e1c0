// Package weather provides outdoor weather observations for the simulation:
// a live Open-Meteo client and a deterministic synthetic generator. The
// simulation treats a nil observation as "skip this tick's growth update."
package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Observation is one outdoor weather sample.
type Observation struct {
	Temperature   float64 `json:"temperature"`   // °C
	Humidity      float64 `json:"humidity"`      // relative humidity, %
	Precipitation float64 `json:"precipitation"` // mm/hour
	Radiation     float64 `json:"radiation"`     // direct + diffuse, W/m²
}

// Provider supplies observations for a point in simulated time. Live
// providers may ignore the timestamp; deterministic providers derive the
// sample from it.
type Provider interface {
	Observe(at time.Time) (*Observation, error)
}

// Client fetches current conditions from the Open-Meteo forecast API.
type Client struct {
	latitude  float64
	longitude float64
	client    *http.Client

	cached      *Observation
	cachedAt    time.Time
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

// NewClient creates a live weather client for a coordinate.
func NewClient(latitude, longitude float64) *Client {
	return &Client{
		latitude:  latitude,
		longitude: longitude,
		client:    &http.Client{Timeout: 10 * time.Second},
		cacheTTL:  5 * time.Minute,
	}
}

// Observe returns current conditions, serving from cache while fresh.
// Failures back off exponentially (up to 10 minutes) and fall back to the
// last cached observation when one exists.
func (c *Client) Observe(_ time.Time) (*Observation, error) {
	if c.cached != nil && time.Since(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, fmt.Errorf("weather API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	obs, err := c.fetchFromAPI()
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = 1 * time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = obs
	c.cachedAt = time.Now()
	c.failBackoff = 0
	return obs, nil
}

func (c *Client) fetchFromAPI() (*Observation, error) {
	apiURL := fmt.Sprintf(
		"https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,precipitation,shortwave_radiation",
		c.latitude, c.longitude)

	resp, err := c.client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var om struct {
		Current struct {
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Precipitation float64 `json:"precipitation"`
			Radiation     float64 `json:"shortwave_radiation"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &om); err != nil {
		return nil, fmt.Errorf("parse weather: %w", err)
	}

	obs := &Observation{
		Temperature:   om.Current.Temperature,
		Humidity:      om.Current.Humidity,
		Precipitation: om.Current.Precipitation,
		Radiation:     om.Current.Radiation,
	}
	slog.Debug("weather fetched",
		"temp", obs.Temperature,
		"humidity", obs.Humidity,
		"precip", obs.Precipitation,
		"radiation", obs.Radiation,
	)
	return obs, nil
}
