// Command caretaker runs the autonomous garden steward.
// It observes garden state, triages plants with deterministic rules,
// and acts via the control-plane API.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/greenhaven/internal/caretaker"
)

// maxActionsPerCycle keeps the caretaker gentle: a struggling garden gets
// help incrementally, not a blast of every correction at once.
const maxActionsPerCycle = 3

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("GARDENSIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("GARDENSIM_ADMIN_KEY")
	intervalSec := envIntOrDefault("CARETAKER_INTERVAL", 300)

	if adminKey == "" {
		slog.Error("GARDENSIM_ADMIN_KEY is required")
		os.Exit(1)
	}

	interval := time.Duration(intervalSec) * time.Second

	slog.Info("GreenHaven caretaker starting",
		"api_url", apiURL,
		"interval", interval,
	)

	observer := caretaker.NewObserver(apiURL)
	actor := caretaker.NewActor(apiURL, adminKey)

	// Wait for the simulation API to be ready before the first cycle.
	// systemd After= only ensures process start, not HTTP readiness.
	slog.Info("waiting for gardensim API...")
	waitForAPI(apiURL)

	// Run first cycle immediately.
	runCycle(observer, actor)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runCycle(observer, actor)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Caretaker stopped.")
			return
		}
	}
}

// runCycle executes one observe → triage → act cycle.
func runCycle(observer *caretaker.Observer, actor *caretaker.Actor) {
	slog.Info("caretaker cycle starting")

	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	slog.Info("observation complete",
		"plants", snap.Status.Plants,
		"diseased", snap.Status.Diseased,
		"avg_moisture", fmt.Sprintf("%.1f", snap.Status.AvgMoisture),
	)

	if snap.Status.Replaying {
		slog.Info("fast-forward in progress — skipping cycle")
		return
	}

	actions := caretaker.Triage(snap)
	if len(actions) == 0 {
		slog.Info("caretaker cycle complete — garden healthy, no action")
		return
	}
	if len(actions) > maxActionsPerCycle {
		actions = actions[:maxActionsPerCycle]
	}

	for _, action := range actions {
		if err := actor.Act(action); err != nil {
			slog.Error("action failed", "kind", action.Kind, "error", err)
			continue
		}
		slog.Info("action executed",
			"kind", action.Kind,
			"urgency", action.Urgency,
			"reason", action.Reason,
			"plant", action.PlantID,
		)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(apiURL string) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				slog.Info("gardensim API is ready")
				return
			}
		}
		if time.Now().After(deadline) {
			slog.Error("gardensim API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("gardensim not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
