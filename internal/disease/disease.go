// Package disease implements the per-species disease state machine.
// A plant is either healthy (None) or holds exactly one of its species'
// candidate diseases; triggers, progression, penalties, and cures are all
// data-driven through Definition tables rather than per-disease types.
package disease

import (
	"log/slog"
	"time"
)

// None is the healthy state. It is both the initial state and a valid
// steady state; there is no terminal state.
const None = "none"

// Cadences of the two disease timers. Trigger checks run on a short cycle;
// progression runs on a long cycle tracked by elapsed sim-time against the
// last-check timestamp so it survives pausing.
const (
	CheckInterval    = 60 * time.Second
	ProgressInterval = time.Hour
)

// CureProgressStep is how much a partial cure reduces progress per use.
const CureProgressStep = 0.2

// Sample is the environment snapshot trigger and progression predicates
// evaluate against.
type Sample struct {
	Moisture    float64
	Humidity    float64
	Light       float64
	Temperature float64
}

// Candidate describes one disease a species can develop.
type Candidate struct {
	Name string

	// Trigger holds when conditions favor onset. The onset also requires a
	// random draw below Probability on a check tick.
	Trigger     func(Sample) bool
	Probability float64

	// Progresses holds when an active case keeps worsening.
	Progresses      func(Sample) bool
	ProgressionRate float64 // progress units per progression tick

	// PenaltyFloor is the growth multiplier at full progress. The effective
	// multiplier interpolates linearly from 1.0 (healthy) down to this.
	PenaltyFloor float64

	// Cures lists item identifiers that clear the disease outright.
	// PartialCures step progress down by CureProgressStep per application
	// and only clear the disease once progress reaches 0.
	Cures        []string
	PartialCures []string
}

// Definition is the ordered candidate list for one species. Order is
// priority: on a check tick only the first matching candidate can trigger,
// so diseases are mutually exclusive by construction.
type Definition struct {
	Species    string
	Candidates []Candidate
}

// Engine is the state machine instance attached to one plant.
type Engine struct {
	def Definition

	Current    string    // active disease name, None when healthy
	Progress   float64   // 0–1 severity
	SlowFactor float64   // growth multiplier, ≤ 1
	LastCheck  time.Time // sim-time of the last progression tick
}

// NewEngine creates a healthy engine for a species definition.
func NewEngine(def Definition, now time.Time) *Engine {
	return &Engine{
		def:        def,
		Current:    None,
		SlowFactor: 1.0,
		LastCheck:  now,
	}
}

// Healthy reports whether no disease is active.
func (e *Engine) Healthy() bool { return e.Current == None }

// Multiplier returns the current growth-penalty multiplier.
func (e *Engine) Multiplier() float64 { return e.SlowFactor }

// active returns the candidate matching the current state, or nil.
func (e *Engine) active() *Candidate {
	for i := range e.def.Candidates {
		if e.def.Candidates[i].Name == e.Current {
			return &e.def.Candidates[i]
		}
	}
	return nil
}

// Check runs one trigger evaluation. Candidates are tried in priority order;
// the first whose predicate holds and whose probability draw succeeds becomes
// the active disease. No-op while a disease is already active.
// Returns the name of the newly contracted disease, or "" if none.
func (e *Engine) Check(s Sample, roll func() float64) string {
	if e.Current != None {
		return ""
	}
	for i := range e.def.Candidates {
		c := &e.def.Candidates[i]
		if !c.Trigger(s) {
			continue
		}
		if roll() >= c.Probability {
			continue
		}
		e.Current = c.Name
		e.Progress = 0
		e.SlowFactor = 1.0
		return c.Name
	}
	return ""
}

// Advance runs the progression timer. If at least ProgressInterval of
// sim-time has elapsed since LastCheck, the active disease progresses
// (when its predicate still holds) and LastCheck moves to now. The timestamp
// advances even while healthy so a freshly contracted disease doesn't
// immediately take a backlog of progression ticks.
// Returns true if severity changed.
func (e *Engine) Advance(s Sample, now time.Time) bool {
	if now.Sub(e.LastCheck) < ProgressInterval {
		return false
	}
	e.LastCheck = now

	c := e.active()
	if c == nil || !c.Progresses(s) {
		return false
	}
	e.Progress = min(e.Progress+c.ProgressionRate, 1.0)
	e.SlowFactor = 1.0 + (c.PenaltyFloor-1.0)*e.Progress
	return true
}

// Cure applies a cure item. Full cures clear the disease immediately;
// partial cures step progress down and clear only at zero. The first return
// reports whether the item matched the active disease at all, the second
// whether the plant ended up healthy.
func (e *Engine) Cure(item string) (applied, cured bool) {
	c := e.active()
	if c == nil {
		return false, e.Current == None
	}
	for _, full := range c.Cures {
		if full == item {
			e.reset()
			return true, true
		}
	}
	for _, partial := range c.PartialCures {
		if partial == item {
			e.Progress -= CureProgressStep
			if e.Progress <= 0 {
				e.reset()
				return true, true
			}
			e.SlowFactor = 1.0 + (c.PenaltyFloor-1.0)*e.Progress
			return true, false
		}
	}
	return false, false
}

func (e *Engine) reset() {
	e.Current = None
	e.Progress = 0
	e.SlowFactor = 1.0
}

// StampCheck moves the progression timestamp to now without progressing.
// Used when a fast-forward replay completes so the next normal tick doesn't
// double-apply progression.
func (e *Engine) StampCheck(now time.Time) {
	e.LastCheck = now
}

// Restore rehydrates persisted disease state. Unknown disease names fail
// closed to None with the timestamp reset to now — a recoverable
// data-integrity fallback, never fatal.
func (e *Engine) Restore(name string, progress, slowFactor float64, lastCheck, now time.Time) {
	if name == None || name == "" {
		e.reset()
		e.LastCheck = lastCheck
		return
	}
	for i := range e.def.Candidates {
		if e.def.Candidates[i].Name == name {
			e.Current = name
			e.Progress = clamp01(progress)
			e.SlowFactor = slowFactor
			if e.SlowFactor <= 0 || e.SlowFactor > 1 {
				c := &e.def.Candidates[i]
				e.SlowFactor = 1.0 + (c.PenaltyFloor-1.0)*e.Progress
			}
			e.LastCheck = lastCheck
			return
		}
	}
	slog.Warn("unknown persisted disease, resetting to healthy",
		"species", e.def.Species, "disease", name)
	e.reset()
	e.LastCheck = now
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
