// Command gardensim runs the GreenHaven garden simulation daemon.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talgya/greenhaven/internal/api"
	"github.com/talgya/greenhaven/internal/engine"
	"github.com/talgya/greenhaven/internal/entropy"
	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/persistence"
	"github.com/talgya/greenhaven/internal/species"
	"github.com/talgya/greenhaven/internal/weather"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded configuration from .env")
	}

	dbPath := envOrDefault("GARDENSIM_DB", "data/garden.db")
	apiPort := envIntOrDefault("GARDENSIM_PORT", 8080)
	adminKey := os.Getenv("GARDENSIM_ADMIN_KEY")
	seed := int64(envIntOrDefault("GARDENSIM_SEED", 0))

	slog.Info("GreenHaven — Garden Simulation")

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0o755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Seed (persisted so restarts keep the same draw/weather stream) ─
	if seed == 0 {
		if saved, err := db.GetMeta("seed"); err == nil {
			if v, err := strconv.ParseInt(saved, 10, 64); err == nil {
				seed = v
			}
		}
	}
	if seed == 0 {
		seed = entropy.RandomSeed()
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(seed, 10)); err != nil {
		slog.Error("failed to persist seed", "error", err)
		os.Exit(1)
	}

	// ── Weather provider ──────────────────────────────────────────────
	epoch := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var provider weather.Provider
	if os.Getenv("GARDENSIM_WEATHER") == "live" {
		lat := envFloatOrDefault("GARDENSIM_LAT", 51.51)
		lon := envFloatOrDefault("GARDENSIM_LON", -0.13)
		provider = weather.NewClient(lat, lon)
		slog.Info("live weather enabled", "lat", lat, "lon", lon)
	} else {
		provider = weather.NewSynthetic(seed, epoch)
		slog.Info("synthetic weather enabled", "seed", seed)
	}

	// ── Load or create garden state ───────────────────────────────────
	sim := engine.NewSimulation(provider, entropy.NewSeeded(seed), epoch)
	var startTick uint64

	if db.HasGardenState() {
		slog.Info("found saved garden state, loading...")

		if tickStr, err := db.GetMeta("last_tick"); err == nil {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}
		sim.LastTick = startTick

		plants, err := db.LoadPlants(sim.SimTimeAt(startTick))
		if err != nil {
			slog.Error("failed to load plants", "error", err)
			os.Exit(1)
		}
		for _, pl := range plants {
			sim.Adopt(pl)
		}

		toggles, err := db.LoadToggles()
		if err != nil {
			slog.Error("failed to load toggles", "error", err)
			os.Exit(1)
		}
		for loc, t := range toggles {
			sim.Toggles[loc] = t
		}

		slog.Info("garden state restored",
			"plants", len(plants),
			"tick", startTick,
			"sim_time", engine.SimTime(startTick),
		)
	} else {
		// Starter garden: one of each builtin species spread across the
		// three locations.
		slog.Info("no saved state found, planting starter garden...")
		locations := []environment.Location{
			environment.LocationGreenHouse,
			environment.LocationHouse,
			environment.LocationGround,
		}
		for i, profile := range species.Builtin() {
			sim.PlantSeed(profile, locations[i%len(locations)])
		}
		if err := db.SaveGarden(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Tick = startTick
	eng.Speed = envFloatOrDefault("GARDENSIM_SPEED", 1)

	saveEvery := uint64(envIntOrDefault("GARDENSIM_SAVE_TICKS", 3600))
	eng.OnTick = func(tick uint64) {
		sim.TickSecond(tick)
		if tick%saveEvery == 0 {
			if err := db.SaveGarden(sim); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if adminKey == "" {
		slog.Warn("GARDENSIM_ADMIN_KEY not set — control POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Run until signalled ───────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	eng.Run()

	if err := db.SaveGarden(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}
	slog.Info("goodbye", "tick", eng.Tick, "sim_time", engine.SimTime(eng.Tick))
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

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
