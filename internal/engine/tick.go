// Package engine provides the tick-based simulation scheduler.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Tick cadences. Growth runs every tick (1 sim-second); disease trigger
// checks every DiseaseCheck ticks. Disease progression uses elapsed sim-time
// (see the disease package) rather than a tick counter.
const (
	TicksPerDiseaseCheck = 60   // 1 sim-minute
	TicksPerReport       = 3600 // 1 sim-hour
)

// Engine drives the simulation forward at a fixed interval.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1 second)
	Running  bool

	// OnTick runs every tick. Populated during setup.
	OnTick func(tick uint64)

	// Set while a fast-forward replay owns the tick counter; the normal
	// loop idles until it clears.
	replaying atomic.Bool

	// stepMu serializes tick ownership. Run holds it for one live step at
	// a time; FastForward holds it for the whole replay, so a replay only
	// starts once any in-flight live step has finished.
	stepMu sync.Mutex
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Tick:     0,
		Speed:    1.0,
		Interval: time.Second,
		Running:  false,
	}
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 || e.replaying.Load() {
			// Paused or detached for a replay — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.stepMu.Lock()
		// Re-check under the lock: a replay may have started after the
		// check above, and it owns the tick counter until it finishes.
		if !e.replaying.Load() {
			e.step()
		}
		e.stepMu.Unlock()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.Running = false
}

// Replaying reports whether a fast-forward replay is in progress.
func (e *Engine) Replaying() bool {
	return e.replaying.Load()
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
}

// FastForward synchronously replays d of simulated time as discrete 1-second
// ticks. The normal loop detaches while the replay runs and reattaches when
// it completes, so replay ticks never interleave with live ticks. The weather
// is snapshotted once at the start so the whole replay sees one consistent
// sample; together with the seeded draw sequence this makes the replay
// deterministic. progress, when non-nil, receives fractional completion in
// (0, 1]. Cancellation via ctx takes effect between tick boundaries; the
// disease timestamps are stamped either way so a cancelled replay leaves the
// garden consistent.
func (e *Engine) FastForward(ctx context.Context, sim *Simulation, d time.Duration, progress func(float64)) error {
	total := int64(d / time.Second)
	if total <= 0 {
		return fmt.Errorf("fast-forward duration %s too short", d)
	}
	if !e.replaying.CompareAndSwap(false, true) {
		return fmt.Errorf("fast-forward already in progress")
	}
	defer e.replaying.Store(false)

	// Blocks until any in-flight live step has completed, then keeps the
	// normal loop out of the tick counter for the rest of the replay.
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	obs := sim.observe(e.Tick)
	sim.EmitEvent(Event{
		Tick:        e.Tick,
		Description: fmt.Sprintf("Fast-forward started: replaying %s", d),
		Category:    "fastforward",
	})
	start := time.Now()

	// Report at ~1% granularity, at least once per replay.
	reportEvery := total / 100
	if reportEvery == 0 {
		reportEvery = 1
	}

	var done int64
	var err error
	for done < total {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		e.Tick++
		done++
		sim.ReplayTick(e.Tick, obs)
		if progress != nil && (done%reportEvery == 0 || done == total) {
			progress(float64(done) / float64(total))
		}
	}

	// Progression timers restart from the replay's end regardless of how
	// it terminated.
	sim.StampDiseaseChecks(e.Tick)
	sim.EmitEvent(Event{
		Tick:        e.Tick,
		Description: fmt.Sprintf("Fast-forward finished: %s ticks replayed", humanize.Comma(done)),
		Category:    "fastforward",
	})
	slog.Info("fast-forward complete",
		"ticks", done,
		"sim_duration", time.Duration(done)*time.Second,
		"wall_time", time.Since(start).Round(time.Millisecond),
		"cancelled", err != nil,
	)
	return err
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	seconds := tick % 60
	totalMinutes := tick / 60
	minutes := totalMinutes % 60
	totalHours := totalMinutes / 60
	hours := totalHours % 24
	days := totalHours/24 + 1

	return fmt.Sprintf("Day %d, %02d:%02d:%02d", days, hours, minutes, seconds)
}
