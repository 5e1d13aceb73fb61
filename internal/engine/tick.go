// Package engine provides the hour-based simulation loop: snapshot,
// parallel decision, serial apply.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tick schedule. One tick is one simulated hour.
const (
	HoursPerDay  = 24
	HoursPerWeek = 7 * HoursPerDay
)

// Engine drives a simulation forward in real time.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // Wall time per tick at speed 1

	// Callbacks run after the tick that completes each period.
	OnHour func(tick uint64)
	OnDay  func(tick uint64)
	OnWeek func(tick uint64)

	mu     sync.Mutex
	paused bool
	speed  float64
}

// NewEngine creates an engine for sim ticking once per interval.
func NewEngine(sim *Simulation, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{Sim: sim, Interval: interval, speed: 1}
}

// Run ticks until ctx is cancelled. Cancellation takes effect between
// ticks, never inside one.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "tick", e.Sim.Tick(), "interval", e.Interval)
	defer func() { slog.Info("simulation engine stopped", "tick", e.Sim.Tick()) }()

	for {
		wait := e.Interval
		if e.Paused() {
			wait = 100 * time.Millisecond
		} else {
			start := time.Now()
			if err := e.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			wait = time.Duration(float64(e.Interval)/e.Speed()) - time.Since(start)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(max(wait, 0)):
		}
	}
}

// Step runs exactly one tick and fires the period callbacks.
func (e *Engine) Step(ctx context.Context) error {
	if err := e.Sim.SimulateHour(ctx); err != nil {
		return fmt.Errorf("simulate hour: %w", err)
	}
	done := e.Sim.Tick()
	if e.OnHour != nil {
		e.OnHour(done)
	}
	if done%HoursPerDay == 0 && e.OnDay != nil {
		e.OnDay(done)
	}
	if done%HoursPerWeek == 0 && e.OnWeek != nil {
		e.OnWeek(done)
	}
	return nil
}

// Pause stops ticking until Resume.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Resume continues after Pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// SetSpeed sets the tick rate multiplier. Values <= 0 are ignored.
func (e *Engine) SetSpeed(v float64) {
	if v <= 0 {
		return
	}
	e.mu.Lock()
	e.speed = v
	e.mu.Unlock()
}

// Speed returns the tick rate multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SimTime renders a tick as a day and hour.
func SimTime(tick uint64) string {
	return fmt.Sprintf("Day %d, %02d:00", tick/HoursPerDay+1, tick%HoursPerDay)
}
