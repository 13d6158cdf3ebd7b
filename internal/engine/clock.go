package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// SimDate returns a human-readable date for a month count, e.g. "Mar Year 2".
// Month 0 is January of year 1.
func SimDate(month int) string {
	if month < 0 {
		month = 0
	}
	return fmt.Sprintf("%s Year %d", monthNames[month%12], month/12+1)
}

// Stepper advances a simulation by one month.
type Stepper interface {
	SimulateMonth() error
	Month() int
}

// Clock runs a Stepper in real time.
type Clock struct {
	sim      Stepper
	interval time.Duration // Wall time per month at speed 1

	mu      sync.Mutex
	speed   float64 // 1.0 = real time, 0 = paused
	running atomic.Bool
	done    chan struct{}

	// OnMonth is called after every completed month.
	OnMonth func(month int)
}

// NewClock creates a clock that steps sim once per interval.
func NewClock(sim Stepper, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	return &Clock{sim: sim, interval: interval, speed: 1, done: make(chan struct{})}
}

// Run starts the loop. Blocks until Stop is called.
func (c *Clock) Run() {
	c.running.Store(true)
	slog.Info("clock started", "month", c.sim.Month(), "speed", c.Speed())

	for c.running.Load() {
		speed := c.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			c.sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		if err := c.sim.SimulateMonth(); err != nil {
			slog.Error("month failed", "month", c.sim.Month()+1, "error", err)
		} else if c.OnMonth != nil {
			c.OnMonth(c.sim.Month())
		}

		// Sleep for the rest of the interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(c.interval) / speed)
		if elapsed < target {
			c.sleep(target - elapsed)
		}
	}

	slog.Info("clock stopped", "month", c.sim.Month())
}

func (c *Clock) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-c.done:
	}
}

// Stop halts the loop after the current month.
func (c *Clock) Stop() {
	if c.running.Swap(false) {
		close(c.done)
	}
}

// Running reports whether the loop is active.
func (c *Clock) Running() bool { return c.running.Load() }

// SetSpeed changes the speed multiplier. Zero or less pauses.
func (c *Clock) SetSpeed(s float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = s
}

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Pause is SetSpeed(0).
func (c *Clock) Pause() { c.SetSpeed(0) }
