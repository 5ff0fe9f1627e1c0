// Simulation ties together weather, environment, and plant systems and runs
// them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/greenhaven/internal/disease"
	"github.com/talgya/greenhaven/internal/entropy"
	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/plant"
	"github.com/talgya/greenhaven/internal/species"
	"github.com/talgya/greenhaven/internal/weather"
)

// Simulation holds the complete garden state and wires systems together.
// All plant-state mutation — ticks, planting, toggles, cures — serializes
// behind one mutex, so external commands land exactly at tick boundaries and
// never mid-tick.
type Simulation struct {
	mu sync.Mutex

	Weather weather.Provider
	Rand    entropy.Source
	Epoch   time.Time // sim-time of tick 0

	Plants     []*plant.Instance
	PlantIndex map[uuid.UUID]*plant.Instance
	Toggles    map[environment.Location]environment.Toggles

	Events   []Event // Recent events (ring buffer)
	LastTick uint64  // Most recent tick processed

	// Harvested instances waiting for reuse.
	pool []*plant.Instance

	// Statistics refreshed each tick.
	Stats SimStats
}

// Event is a notable occurrence in the garden.
type Event struct {
	Tick        uint64         `json:"tick"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "growth", "disease", "cure", "plant", "fastforward"
	PlantID     string         `json:"plant_id,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// SimStats tracks aggregate garden statistics.
type SimStats struct {
	PlantCount  int     `json:"plant_count"`
	FullyGrown  int     `json:"fully_grown"`
	Diseased    int     `json:"diseased"`
	AvgScale    float64 `json:"avg_scale"`
	AvgMoisture float64 `json:"avg_moisture"`
}

// NewSimulation creates an empty garden.
func NewSimulation(w weather.Provider, rnd entropy.Source, epoch time.Time) *Simulation {
	return &Simulation{
		Weather:    w,
		Rand:       rnd,
		Epoch:      epoch,
		PlantIndex: make(map[uuid.UUID]*plant.Instance),
		Toggles: map[environment.Location]environment.Toggles{
			environment.LocationGround:     {},
			environment.LocationHouse:      {},
			environment.LocationGreenHouse: {},
		},
	}
}

// SimTimeAt converts a tick number to simulated time.
func (s *Simulation) SimTimeAt(tick uint64) time.Time {
	return s.Epoch.Add(time.Duration(tick) * time.Second)
}

// SimNow returns the simulated time of the last processed tick.
func (s *Simulation) SimNow() time.Time {
	return s.SimTimeAt(s.LastTick)
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// observe fetches the weather for a tick. A nil result means no data: the
// growth update for that tick is skipped and retried on the next one.
func (s *Simulation) observe(tick uint64) *weather.Observation {
	obs, err := s.Weather.Observe(s.SimTimeAt(tick))
	if err != nil {
		slog.Debug("weather unavailable, skipping growth tick", "tick", tick, "error", err)
		return nil
	}
	return obs
}

// TickSecond runs one live growth tick for every planted plant.
func (s *Simulation) TickSecond(tick uint64) {
	obs := s.observe(tick)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step(tick, obs)
}

// ReplayTick runs one fast-forward tick against a snapshotted observation.
func (s *Simulation) ReplayTick(tick uint64, obs *weather.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step(tick, obs)
}

// step advances every plant by one second. Caller holds mu.
func (s *Simulation) step(tick uint64, obs *weather.Observation) {
	s.LastTick = tick
	if obs == nil {
		return
	}

	const dt = 1.0 // seconds per tick
	now := s.SimTimeAt(tick)
	outdoor := environment.Outdoor{
		Temperature:   obs.Temperature,
		Humidity:      obs.Humidity,
		Light:         obs.Radiation,
		Precipitation: obs.Precipitation,
	}

	// Effective readings are per location, not per plant.
	readings := make(map[environment.Location]environment.Reading, 3)
	for _, loc := range environment.Locations() {
		readings[loc] = environment.Effective(loc, outdoor, s.Toggles[loc])
	}

	checkTick := tick%TicksPerDiseaseCheck == 0

	for _, pl := range s.Plants {
		if !pl.Planted {
			continue
		}
		env := readings[pl.Location]
		toggles := s.Toggles[pl.Location]

		pl.TickWater(env, obs.Precipitation, toggles, dt)
		pl.TickNutrient(env, obs.Precipitation, dt)

		effMoisture := pl.EffectiveMoisture(env.Humidity)
		modifier := pl.GrowthModifier(env, effMoisture)
		if pl.ChangeScale(modifier, dt) {
			s.emitLocked(Event{
				Tick:        tick,
				Description: fmt.Sprintf("%s reached full size in the %s", pl.Species.Name, pl.Location),
				Category:    "growth",
				PlantID:     pl.ID.String(),
				Meta:        map[string]any{"scale": pl.Scale},
			})
		}

		sample := pl.Sample(env)
		if checkTick {
			if name := pl.Disease.Check(sample, s.Rand.Float); name != "" {
				s.emitLocked(Event{
					Tick:        tick,
					Description: fmt.Sprintf("%s has developed %s", pl.Species.Name, name),
					Category:    "disease",
					PlantID:     pl.ID.String(),
					Meta:        map[string]any{"disease": name},
				})
			}
		}
		if pl.Disease.Advance(sample, now) {
			slog.Debug("disease progressed",
				"plant", pl.ID,
				"disease", pl.Disease.Current,
				"progress", fmt.Sprintf("%.2f", pl.Disease.Progress),
			)
		}
	}

	s.updateStats()

	if tick%TicksPerReport == 0 {
		slog.Info("garden report",
			"tick", tick,
			"time", SimTime(tick),
			"plants", s.Stats.PlantCount,
			"fully_grown", s.Stats.FullyGrown,
			"diseased", s.Stats.Diseased,
			"avg_scale", fmt.Sprintf("%.3f", s.Stats.AvgScale),
			"avg_moisture", fmt.Sprintf("%.1f", s.Stats.AvgMoisture),
		)
	}
}

// StampDiseaseChecks moves every plant's disease progression timestamp to
// the sim-time of the given tick. Called when a fast-forward completes.
func (s *Simulation) StampDiseaseChecks(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.SimTimeAt(tick)
	for _, pl := range s.Plants {
		pl.Disease.StampCheck(now)
	}
}

// EmitEvent appends an event to the ring buffer.
func (s *Simulation) EmitEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(e)
}

func (s *Simulation) emitLocked(e Event) {
	s.Events = append(s.Events, e)
	// Trim old events to prevent unbounded growth (keep last 1000).
	if len(s.Events) > 1000 {
		s.Events = s.Events[len(s.Events)-1000:]
	}
}

// RecentEvents returns a copy of up to limit most recent events.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.Events) {
		limit = len(s.Events)
	}
	out := make([]Event, limit)
	copy(out, s.Events[len(s.Events)-limit:])
	return out
}

func (s *Simulation) updateStats() {
	var st SimStats
	totalScale := 0.0
	totalMoisture := 0.0
	for _, pl := range s.Plants {
		if !pl.Planted {
			continue
		}
		st.PlantCount++
		totalScale += pl.Scale
		totalMoisture += pl.Moisture
		if pl.ReachedMaxScale {
			st.FullyGrown++
		}
		if !pl.Disease.Healthy() {
			st.Diseased++
		}
	}
	if st.PlantCount > 0 {
		st.AvgScale = totalScale / float64(st.PlantCount)
		st.AvgMoisture = totalMoisture / float64(st.PlantCount)
	}
	s.Stats = st
}

// Snapshot returns a copy of the current stats.
func (s *Simulation) Snapshot() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stats
}

// PlantSeed plants a new seed, reusing a pooled instance of the same species
// when one is available.
func (s *Simulation) PlantSeed(profile *species.Profile, loc environment.Location) *plant.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.SimTimeAt(s.LastTick)

	for i, pooled := range s.pool {
		if pooled.Species.Name == profile.Name {
			s.pool = append(s.pool[:i], s.pool[i+1:]...)
			pooled.Replant(profile, loc, now)
			s.Plants = append(s.Plants, pooled)
			s.PlantIndex[pooled.ID] = pooled
			s.emitLocked(Event{
				Tick:        s.LastTick,
				Description: fmt.Sprintf("A %s seed was planted in the %s", profile.Name, loc),
				Category:    "plant",
				PlantID:     pooled.ID.String(),
			})
			return pooled
		}
	}

	inst := plant.New(profile, loc, now)
	s.Plants = append(s.Plants, inst)
	s.PlantIndex[inst.ID] = inst
	s.emitLocked(Event{
		Tick:        s.LastTick,
		Description: fmt.Sprintf("A %s seed was planted in the %s", profile.Name, loc),
		Category:    "plant",
		PlantID:     inst.ID.String(),
	})
	return inst
}

// Adopt registers a restored plant instance without emitting a planting
// event. Used when rehydrating from persistence.
func (s *Simulation) Adopt(pl *plant.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !pl.Planted {
		s.pool = append(s.pool, pl)
		return
	}
	s.Plants = append(s.Plants, pl)
	s.PlantIndex[pl.ID] = pl
}

// Harvest resets a plant to storage state and returns it to the pool.
func (s *Simulation) Harvest(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.PlantIndex[id]
	if !ok || !pl.Planted {
		return fmt.Errorf("plant %s not found", id)
	}
	scale := pl.Scale
	pl.Reset(s.SimTimeAt(s.LastTick))
	delete(s.PlantIndex, id)
	for i, p := range s.Plants {
		if p == pl {
			s.Plants = append(s.Plants[:i], s.Plants[i+1:]...)
			break
		}
	}
	s.pool = append(s.pool, pl)
	s.emitLocked(Event{
		Tick:        s.LastTick,
		Description: fmt.Sprintf("A %s was harvested at scale %.2f", pl.Species.Name, scale),
		Category:    "plant",
		PlantID:     id.String(),
	})
	return nil
}

// Lookup returns a planted instance by ID. The caller must not mutate it;
// observers should prefer View.
func (s *Simulation) Lookup(id uuid.UUID) (*plant.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl, ok := s.PlantIndex[id]
	return pl, ok
}

// PlantView is a read-only copy of one plant's state, safe to use outside
// the simulation lock.
type PlantView struct {
	ID                  uuid.UUID
	Species             string
	Location            environment.Location
	Scale               float64
	MaxScale            float64
	ReachedMaxScale     bool
	Moisture            float64
	Nutrient            float64
	Fertilizer          species.FertilizerType
	FertilizerRemaining time.Duration
	Disease             string
	DiseaseProgress     float64
	DiseaseSlowFactor   float64
	LastDiseaseCheck    time.Time
}

func viewOf(pl *plant.Instance) PlantView {
	return PlantView{
		ID:                  pl.ID,
		Species:             pl.Species.Name,
		Location:            pl.Location,
		Scale:               pl.Scale,
		MaxScale:            pl.MaxScale(),
		ReachedMaxScale:     pl.ReachedMaxScale,
		Moisture:            pl.Moisture,
		Nutrient:            pl.Nutrient,
		Fertilizer:          pl.Fertilizer,
		FertilizerRemaining: pl.FertilizerRemaining,
		Disease:             pl.Disease.Current,
		DiseaseProgress:     pl.Disease.Progress,
		DiseaseSlowFactor:   pl.Disease.SlowFactor,
		LastDiseaseCheck:    pl.Disease.LastCheck,
	}
}

// View returns a read-only copy of one plant.
func (s *Simulation) View(id uuid.UUID) (PlantView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl, ok := s.PlantIndex[id]
	if !ok {
		return PlantView{}, false
	}
	return viewOf(pl), true
}

// Views returns read-only copies of all planted plants.
func (s *Simulation) Views() []PlantView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlantView, 0, len(s.Plants))
	for _, pl := range s.Plants {
		if pl.Planted {
			out = append(out, viewOf(pl))
		}
	}
	return out
}

// SetFixture flips one fixture toggle for a location. Fixtures a location
// does not have are rejected.
func (s *Simulation) SetFixture(loc environment.Location, fixture string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.Toggles[loc]
	switch fixture {
	case "lights":
		t.Lights = on
	case "air_con":
		if loc != environment.LocationHouse {
			return fmt.Errorf("no air conditioning in the %s", loc)
		}
		t.AirCon = on
	case "fans":
		if loc != environment.LocationGreenHouse {
			return fmt.Errorf("no fans in the %s", loc)
		}
		t.Fans = on
	case "irrigation":
		if loc != environment.LocationGreenHouse {
			return fmt.Errorf("no irrigation in the %s", loc)
		}
		t.Irrigation = on
	case "sprinklers":
		if loc != environment.LocationGround {
			return fmt.Errorf("no sprinklers in the %s", loc)
		}
		t.Sprinklers = on
	default:
		return fmt.Errorf("unknown fixture %q", fixture)
	}
	s.Toggles[loc] = t
	slog.Info("fixture toggled", "location", loc.String(), "fixture", fixture, "on", on)
	return nil
}

// TogglesAt returns the fixture state for a location.
func (s *Simulation) TogglesAt(loc environment.Location) environment.Toggles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Toggles[loc]
}

// TogglesSnapshot returns a copy of the fixture state for every location,
// taken under the lock so it is consistent with a single tick.
func (s *Simulation) TogglesSnapshot() map[environment.Location]environment.Toggles {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[environment.Location]environment.Toggles, len(s.Toggles))
	for loc, t := range s.Toggles {
		out[loc] = t
	}
	return out
}

// Water applies a manual watering to one plant.
func (s *Simulation) Water(id uuid.UUID, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.PlantIndex[id]
	if !ok {
		return fmt.Errorf("plant %s not found", id)
	}
	pl.AddWater(amount)
	return nil
}

// Fertilize applies fertilizer to one plant.
func (s *Simulation) Fertilize(id uuid.UUID, ft species.FertilizerType, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.PlantIndex[id]
	if !ok {
		return fmt.Errorf("plant %s not found", id)
	}
	pl.ApplyFertilizer(ft, amount)
	s.emitLocked(Event{
		Tick:        s.LastTick,
		Description: fmt.Sprintf("%s applied to the %s", ft, pl.Species.Name),
		Category:    "plant",
		PlantID:     id.String(),
		Meta:        map[string]any{"fertilizer": ft.String(), "amount": amount},
	})
	return nil
}

// Cure applies a cure item to one plant's disease engine.
func (s *Simulation) Cure(id uuid.UUID, item string) (cured bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.PlantIndex[id]
	if !ok {
		return false, fmt.Errorf("plant %s not found", id)
	}
	had := pl.Disease.Current
	applied, cured := pl.Disease.Cure(item)
	if !applied && had != disease.None {
		return false, fmt.Errorf("%s does not treat %s", item, had)
	}
	if cured && had != disease.None {
		s.emitLocked(Event{
			Tick:        s.LastTick,
			Description: fmt.Sprintf("%s was cured of %s", pl.Species.Name, had),
			Category:    "cure",
			PlantID:     id.String(),
			Meta:        map[string]any{"disease": had, "item": item},
		})
	}
	return cured, nil
}
