// Package api provides the HTTP API for the garden simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (the player/caretaker control plane).
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/talgya/greenhaven/internal/disease"
	"github.com/talgya/greenhaven/internal/engine"
	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/persistence"
	"github.com/talgya/greenhaven/internal/species"
)

// Server serves the garden state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	started time.Time
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()

	// Fast-forward replays are expensive; keep requests bounded.
	ffLimiter := newReplayLimiter(6, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the garden).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/plants", s.handlePlants)
	mux.HandleFunc("/api/v1/plant/", s.handlePlantDetail)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/species", s.handleSpecies)
	mux.HandleFunc("/api/v1/toggles", s.handleToggles)

	// Control endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/toggle", s.adminOnly(s.handleToggle))
	mux.HandleFunc("/api/v1/plant", s.adminOnly(s.handlePlantSeed))
	mux.HandleFunc("/api/v1/harvest", s.adminOnly(s.handleHarvest))
	mux.HandleFunc("/api/v1/water", s.adminOnly(s.handleWater))
	mux.HandleFunc("/api/v1/cure", s.adminOnly(s.handleCure))
	mux.HandleFunc("/api/v1/fertilize", s.adminOnly(s.handleFertilize))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/fastforward",
		s.adminOnly(limitByIP(ffLimiter, s.handleFastForward)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "control endpoints disabled (no GARDENSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// plantIDFromBody decodes a {"id": "..."} request body. Writes the error
// response itself when decoding fails.
func (s *Server) plantIDFromBody(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed plant id")
		return uuid.UUID{}, false
	}
	return id, true
}

// ── Read endpoints ─────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Snapshot()
	tick := s.Sim.CurrentTick()
	writeJSON(w, http.StatusOK, map[string]any{
		"tick":         tick,
		"sim_time":     engine.SimTime(tick),
		"speed":        s.Eng.Speed,
		"running":      s.Eng.Running,
		"replaying":    s.Eng.Replaying(),
		"uptime":       humanize.Time(s.started),
		"plants":       st.PlantCount,
		"fully_grown":  st.FullyGrown,
		"diseased":     st.Diseased,
		"avg_scale":    st.AvgScale,
		"avg_moisture": st.AvgMoisture,
	})
}

// plantSummary is the list-view JSON representation of one plant.
type plantSummary struct {
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
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	views := s.Sim.Views()
	out := make([]plantSummary, 0, len(views))
	for _, pv := range views {
		out = append(out, plantSummary{
			ID:              pv.ID.String(),
			Species:         pv.Species,
			Location:        pv.Location.String(),
			Scale:           pv.Scale,
			MaxScale:        pv.MaxScale,
			ReachedMaxScale: pv.ReachedMaxScale,
			Moisture:        pv.Moisture,
			Nutrient:        pv.Nutrient,
			Disease:         pv.Disease,
			DiseaseProgress: pv.DiseaseProgress,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlantDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/plant/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed plant id")
		return
	}
	pv, ok := s.Sim.View(id)
	if !ok {
		writeError(w, http.StatusNotFound, "plant not found")
		return
	}

	full, partial := disease.CureItems(pv.Species, pv.Disease)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                   pv.ID.String(),
		"species":              pv.Species,
		"location":             pv.Location.String(),
		"scale":                pv.Scale,
		"max_scale":            pv.MaxScale,
		"reached_max_scale":    pv.ReachedMaxScale,
		"moisture":             pv.Moisture,
		"nutrient":             pv.Nutrient,
		"fertilizer":           pv.Fertilizer.String(),
		"fertilizer_remaining": pv.FertilizerRemaining.String(),
		"disease":              pv.Disease,
		"disease_progress":     pv.DiseaseProgress,
		"disease_slow_factor":  pv.DiseaseSlowFactor,
		"last_disease_check":   pv.LastDiseaseCheck.UTC().Format(time.RFC3339),
		"cures":                full,
		"partial_cures":        partial,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.Sim.RecentEvents(limit))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var scales, moistures []float64
	for _, pv := range s.Sim.Views() {
		scales = append(scales, pv.Scale)
		moistures = append(moistures, pv.Moisture)
	}
	if len(scales) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"plants": 0})
		return
	}

	summarize := func(data []float64) map[string]float64 {
		mean, _ := stats.Mean(data)
		median, _ := stats.Median(data)
		stddev, _ := stats.StandardDeviation(data)
		minV, _ := stats.Min(data)
		maxV, _ := stats.Max(data)
		return map[string]float64{
			"mean": mean, "median": median, "stddev": stddev, "min": minV, "max": maxV,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plants":   len(scales),
		"scale":    summarize(scales),
		"moisture": summarize(moistures),
	})
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	type speciesInfo struct {
		Name                string  `json:"name"`
		PreferredFertilizer string  `json:"preferred_fertilizer"`
		OptimalMoisture     float64 `json:"optimal_moisture"`
		MaxScale            float64 `json:"max_scale"`
	}
	out := []speciesInfo{}
	for _, p := range species.Builtin() {
		out = append(out, speciesInfo{
			Name:                p.Name,
			PreferredFertilizer: p.PreferredFertilizer.String(),
			OptimalMoisture:     p.OptimalMoisture,
			MaxScale:            p.DefaultMaxScale,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleToggles(w http.ResponseWriter, r *http.Request) {
	out := map[string]environment.Toggles{}
	for _, loc := range environment.Locations() {
		out[loc.String()] = s.Sim.TogglesAt(loc)
	}
	writeJSON(w, http.StatusOK, out)
}

// ── Control endpoints ──────────────────────────────────────────────────

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location string `json:"location"`
		Fixture  string `json:"fixture"`
		On       bool   `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	loc, ok := environment.LocationFromString(req.Location)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown location %q", req.Location))
		return
	}
	if err := s.Sim.SetFixture(loc, req.Fixture, req.On); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePlantSeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Species  string `json:"species"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	profile, ok := species.Match(req.Species)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown species %q", req.Species))
		return
	}
	loc, ok := environment.LocationFromString(req.Location)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown location %q", req.Location))
		return
	}
	pl := s.Sim.PlantSeed(profile, loc)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      pl.ID.String(),
		"species": pl.Species.Name,
	})
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	id, ok := s.plantIDFromBody(w, r)
	if !ok {
		return
	}
	if err := s.Sim.Harvest(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed plant id")
		return
	}
	if req.Amount <= 0 || req.Amount > 100 {
		writeError(w, http.StatusBadRequest, "amount must be in (0, 100]")
		return
	}
	if err := s.Sim.Water(id, req.Amount); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Item string `json:"item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed plant id")
		return
	}
	cured, err := s.Sim.Cure(id, req.Item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cured": cured})
}

func (s *Server) handleFertilize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string  `json:"id"`
		Type   string  `json:"type"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed plant id")
		return
	}
	ft, ok := species.FertilizerFromString(req.Type)
	if !ok || ft == species.FertilizerNone {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown fertilizer %q", req.Type))
		return
	}
	if req.Amount <= 0 || req.Amount > 100 {
		writeError(w, http.StatusBadRequest, "amount must be in (0, 100]")
		return
	}
	if err := s.Sim.Fertilize(id, ft, req.Amount); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Speed < 0 || req.Speed > 100 {
		writeError(w, http.StatusBadRequest, "speed must be in [0, 100]")
		return
	}
	s.Eng.Speed = req.Speed
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "speed": req.Speed})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence disabled")
		return
	}
	if err := s.DB.SaveGarden(s.Sim); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleFastForward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	// Cap at 30 sim-days per request.
	if req.Seconds <= 0 || req.Seconds > 30*24*3600 {
		writeError(w, http.StatusBadRequest, "seconds must be in (0, 2592000]")
		return
	}
	if s.Eng.Replaying() {
		writeError(w, http.StatusConflict, "a fast-forward is already in progress")
		return
	}

	d := time.Duration(req.Seconds) * time.Second
	go func() {
		err := s.Eng.FastForward(context.Background(), s.Sim, d, func(frac float64) {
			slog.Debug("fast-forward progress", "fraction", fmt.Sprintf("%.2f", frac))
		})
		if err != nil {
			slog.Error("fast-forward failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":  true,
		"duration": humanize.Comma(req.Seconds) + "s",
	})
}
