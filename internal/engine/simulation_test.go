package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/talgya/greenhaven/internal/entropy"
	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/species"
	"github.com/talgya/greenhaven/internal/weather"
)

var testEpoch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// fixedWeather returns the same observation for every timestamp.
type fixedWeather struct {
	obs weather.Observation
}

func (f *fixedWeather) Observe(time.Time) (*weather.Observation, error) {
	o := f.obs
	return &o, nil
}

// failingWeather simulates an unreachable weather source.
type failingWeather struct{}

func (failingWeather) Observe(time.Time) (*weather.Observation, error) {
	return nil, fmt.Errorf("weather source down")
}

func mildWeather() *fixedWeather {
	return &fixedWeather{obs: weather.Observation{
		Temperature: 20, Humidity: 50, Precipitation: 0, Radiation: 500,
	}}
}

func testSim(t *testing.T, w weather.Provider, seed int64) *Simulation {
	t.Helper()
	sim := NewSimulation(w, entropy.NewSeeded(seed), testEpoch)

	tomato, ok := species.Lookup("tomato")
	if !ok {
		t.Fatal("tomato missing from catalog")
	}
	fern, ok := species.Lookup("fern")
	if !ok {
		t.Fatal("fern missing from catalog")
	}
	sim.PlantSeed(tomato, environment.LocationGround)
	sim.PlantSeed(fern, environment.LocationGreenHouse)
	return sim
}

func TestTickAdvancesState(t *testing.T) {
	sim := testSim(t, mildWeather(), 1)

	before := make([]float64, len(sim.Plants))
	for i, pl := range sim.Plants {
		before[i] = pl.Scale
	}
	for tick := uint64(1); tick <= 100; tick++ {
		sim.TickSecond(tick)
	}
	if sim.CurrentTick() != 100 {
		t.Errorf("LastTick = %d, want 100", sim.CurrentTick())
	}
	for i, pl := range sim.Plants {
		if pl.Scale <= before[i] {
			t.Errorf("plant %d did not grow: %v -> %v", i, before[i], pl.Scale)
		}
	}
}

func TestTickSkipsWhenWeatherUnavailable(t *testing.T) {
	sim := testSim(t, failingWeather{}, 1)

	scale := sim.Plants[0].Scale
	moisture := sim.Plants[0].Moisture
	sim.TickSecond(1)

	if sim.CurrentTick() != 1 {
		t.Errorf("tick counter did not advance: %d", sim.CurrentTick())
	}
	if sim.Plants[0].Scale != scale || sim.Plants[0].Moisture != moisture {
		t.Error("plant state changed on a skipped tick")
	}
}

func TestFastForwardMatchesLiveTicks(t *testing.T) {
	const n = 500

	// Live run: n individual ticks.
	live := testSim(t, mildWeather(), 42)
	for tick := uint64(1); tick <= n; tick++ {
		live.TickSecond(tick)
	}

	// Replay run: one fast-forward over the same span. Constant weather and
	// an identical seed make the two paths bit-identical.
	replayed := testSim(t, mildWeather(), 42)
	eng := NewEngine()
	if err := eng.FastForward(context.Background(), replayed, n*time.Second, nil); err != nil {
		t.Fatalf("FastForward: %v", err)
	}

	if live.CurrentTick() != replayed.CurrentTick() {
		t.Fatalf("tick mismatch: live %d, replayed %d", live.CurrentTick(), replayed.CurrentTick())
	}
	for i := range live.Plants {
		a, b := live.Plants[i], replayed.Plants[i]
		if a.Scale != b.Scale {
			t.Errorf("plant %d scale: live %v, replayed %v", i, a.Scale, b.Scale)
		}
		if a.Moisture != b.Moisture {
			t.Errorf("plant %d moisture: live %v, replayed %v", i, a.Moisture, b.Moisture)
		}
		if a.Nutrient != b.Nutrient {
			t.Errorf("plant %d nutrient: live %v, replayed %v", i, a.Nutrient, b.Nutrient)
		}
		if a.Disease.Current != b.Disease.Current {
			t.Errorf("plant %d disease: live %q, replayed %q", i, a.Disease.Current, b.Disease.Current)
		}
	}
}

func TestFastForwardStampsDiseaseTimers(t *testing.T) {
	sim := testSim(t, mildWeather(), 1)
	eng := NewEngine()

	if err := eng.FastForward(context.Background(), sim, 120*time.Second, nil); err != nil {
		t.Fatalf("FastForward: %v", err)
	}

	want := sim.SimTimeAt(120)
	for i, pl := range sim.Plants {
		if !pl.Disease.LastCheck.Equal(want) {
			t.Errorf("plant %d LastCheck = %v, want %v", i, pl.Disease.LastCheck, want)
		}
	}
	if eng.Replaying() {
		t.Error("replaying flag still set after completion")
	}
}

func TestFastForwardCancelLeavesConsistentState(t *testing.T) {
	sim := testSim(t, mildWeather(), 1)
	eng := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := eng.FastForward(ctx, sim, time.Hour, nil); err == nil {
		t.Fatal("cancelled fast-forward returned nil error")
	}
	if eng.Replaying() {
		t.Error("replaying flag still set after cancellation")
	}
	// Timers are stamped to wherever the replay stopped.
	want := sim.SimTimeAt(eng.Tick)
	for i, pl := range sim.Plants {
		if !pl.Disease.LastCheck.Equal(want) {
			t.Errorf("plant %d LastCheck = %v, want %v", i, pl.Disease.LastCheck, want)
		}
	}
}

func TestFastForwardRejectsNonPositive(t *testing.T) {
	sim := testSim(t, mildWeather(), 1)
	eng := NewEngine()
	if err := eng.FastForward(context.Background(), sim, 0, nil); err == nil {
		t.Error("zero duration accepted")
	}
	if err := eng.FastForward(context.Background(), sim, 500*time.Millisecond, nil); err == nil {
		t.Error("sub-second duration accepted")
	}
}

func TestFastForwardReportsProgress(t *testing.T) {
	sim := testSim(t, mildWeather(), 1)
	eng := NewEngine()

	var fractions []float64
	err := eng.FastForward(context.Background(), sim, 200*time.Second, func(f float64) {
		fractions = append(fractions, f)
	})
	if err != nil {
		t.Fatalf("FastForward: %v", err)
	}
	if len(fractions) == 0 {
		t.Fatal("no progress reports")
	}
	if last := fractions[len(fractions)-1]; last != 1.0 {
		t.Errorf("final progress = %v, want 1.0", last)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] <= fractions[i-1] {
			t.Fatalf("progress not increasing: %v then %v", fractions[i-1], fractions[i])
		}
	}
}

func TestFastForwardWaitsForLiveTick(t *testing.T) {
	sim := testSim(t, mildWeather(), 7)
	eng := NewEngine()
	eng.Interval = time.Millisecond

	// Stall the first live step mid-flight so the replay has to wait for it.
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var seen []uint64
	eng.OnTick = func(tick uint64) {
		once.Do(func() {
			close(entered)
			<-release
		})
		mu.Lock()
		seen = append(seen, tick)
		mu.Unlock()
		sim.TickSecond(tick)
	}
	go eng.Run()
	defer eng.Stop()

	<-entered
	done := make(chan error, 1)
	go func() {
		done <- eng.FastForward(context.Background(), sim, 50*time.Second, nil)
	}()

	// The replay must not complete while the live step is still running.
	select {
	case err := <-done:
		t.Fatalf("fast-forward finished during a live step: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("FastForward: %v", err)
	}

	// The stalled step finished before the replay claimed the counter, so
	// every live tick lands strictly after the previous one and none can
	// overwrite a replayed tick.
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("live ticks out of order: %d after %d", seen[i], seen[i-1])
		}
	}
	if sim.CurrentTick() < 51 {
		t.Errorf("LastTick = %d, want at least 51 after 1 live + 50 replay ticks", sim.CurrentTick())
	}
}

func TestSimulationInvariantsOverLongRun(t *testing.T) {
	rainy := &fixedWeather{obs: weather.Observation{
		Temperature: 25, Humidity: 85, Precipitation: 5, Radiation: 300,
	}}
	sim := testSim(t, rainy, 3)

	prevScale := make([]float64, len(sim.Plants))
	for tick := uint64(1); tick <= 7200; tick++ {
		sim.TickSecond(tick)
		for i, pl := range sim.Plants {
			if pl.Moisture < 0 || pl.Moisture > 100 {
				t.Fatalf("tick %d: plant %d moisture %v outside [0,100]", tick, i, pl.Moisture)
			}
			if pl.Scale > pl.MaxScale() {
				t.Fatalf("tick %d: plant %d scale %v above cap %v", tick, i, pl.Scale, pl.MaxScale())
			}
			if pl.Scale < prevScale[i] {
				t.Fatalf("tick %d: plant %d scale decreased %v -> %v", tick, i, prevScale[i], pl.Scale)
			}
			prevScale[i] = pl.Scale
		}
	}
}

func TestSetFixtureValidation(t *testing.T) {
	sim := NewSimulation(mildWeather(), entropy.NewSeeded(1), testEpoch)

	tests := []struct {
		loc     environment.Location
		fixture string
		wantErr bool
	}{
		{environment.LocationGround, "lights", false},
		{environment.LocationHouse, "lights", false},
		{environment.LocationGreenHouse, "lights", false},
		{environment.LocationHouse, "air_con", false},
		{environment.LocationGround, "air_con", true},
		{environment.LocationGreenHouse, "fans", false},
		{environment.LocationHouse, "fans", true},
		{environment.LocationGreenHouse, "irrigation", false},
		{environment.LocationGround, "irrigation", true},
		{environment.LocationGround, "sprinklers", false},
		{environment.LocationGreenHouse, "sprinklers", true},
		{environment.LocationGround, "disco_ball", true},
	}
	for _, tt := range tests {
		err := sim.SetFixture(tt.loc, tt.fixture, true)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetFixture(%s, %s) error = %v, wantErr %v", tt.loc, tt.fixture, err, tt.wantErr)
		}
	}

	if !sim.TogglesAt(environment.LocationGreenHouse).Irrigation {
		t.Error("irrigation toggle not recorded")
	}
}

func TestHarvestReturnsToPool(t *testing.T) {
	sim := NewSimulation(mildWeather(), entropy.NewSeeded(1), testEpoch)
	tomato, _ := species.Lookup("tomato")

	first := sim.PlantSeed(tomato, environment.LocationGround)
	if err := sim.Harvest(first.ID); err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(sim.Views()) != 0 {
		t.Errorf("%d plants visible after harvest", len(sim.Views()))
	}

	// Replanting the same species reuses the pooled instance.
	second := sim.PlantSeed(tomato, environment.LocationGreenHouse)
	if second != first {
		t.Error("pooled instance not reused")
	}
	if second.Location != environment.LocationGreenHouse {
		t.Errorf("replanted location = %v", second.Location)
	}
	if second.Scale != tomato.InitialScale {
		t.Errorf("replanted scale = %v, want %v", second.Scale, tomato.InitialScale)
	}

	// The reused instance keeps its ID, so it can be harvested again — once.
	if err := sim.Harvest(second.ID); err != nil {
		t.Fatalf("second harvest: %v", err)
	}
	if err := sim.Harvest(second.ID); err == nil {
		t.Error("harvesting an already-harvested plant succeeded")
	}
}

func TestEventRingBufferTrims(t *testing.T) {
	sim := NewSimulation(mildWeather(), entropy.NewSeeded(1), testEpoch)
	for i := 0; i < 1100; i++ {
		sim.EmitEvent(Event{Tick: uint64(i), Description: "e", Category: "test"})
	}
	all := sim.RecentEvents(0)
	if len(all) != 1000 {
		t.Errorf("ring buffer holds %d events, want 1000", len(all))
	}
	if all[len(all)-1].Tick != 1099 {
		t.Errorf("newest event tick = %d, want 1099", all[len(all)-1].Tick)
	}

	last5 := sim.RecentEvents(5)
	if len(last5) != 5 || last5[4].Tick != 1099 {
		t.Errorf("RecentEvents(5) = %d events ending at %d", len(last5), last5[len(last5)-1].Tick)
	}
}

func TestStatsTrackGarden(t *testing.T) {
	sim := testSim(t, mildWeather(), 1)
	sim.TickSecond(1)

	st := sim.Snapshot()
	if st.PlantCount != 2 {
		t.Errorf("PlantCount = %d, want 2", st.PlantCount)
	}
	if st.AvgScale <= 0 || st.AvgMoisture <= 0 {
		t.Errorf("averages not computed: %+v", st)
	}
}

func TestSimTime(t *testing.T) {
	tests := []struct {
		tick uint64
		want string
	}{
		{0, "Day 1, 00:00:00"},
		{61, "Day 1, 00:01:01"},
		{3661, "Day 1, 01:01:01"},
		{86400, "Day 2, 00:00:00"},
		{90061, "Day 2, 01:01:01"},
	}
	for _, tt := range tests {
		if got := SimTime(tt.tick); got != tt.want {
			t.Errorf("SimTime(%d) = %q, want %q", tt.tick, got, tt.want)
		}
	}
}
