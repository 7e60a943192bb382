package testutil

import "sync"

// Epoch is the default start of a StepClock: 2020-03-01T00:00:00Z.
const Epoch int64 = 1583020800

// StepClock hands out deterministic unix timestamps.
//
// Scenarios and fixtures that leave a date unset get the next tick instead
// of the wall clock, so two runs of the same scenario store identical rows.
//
// Thread-safety: All methods are safe for concurrent use.
type StepClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	ticks int64
}

// NewStepClock returns a clock that starts at start and advances by step
// seconds per tick. A zero start means Epoch; a non-positive step means one
// second.
func NewStepClock(start, step int64) *StepClock {
	if start == 0 {
		start = Epoch
	}
	if step <= 0 {
		step = 1
	}
	return &StepClock{start: start, step: step}
}

// Next advances the clock and returns the new time.
// The first call returns start + step.
func (c *StepClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.start + c.ticks*c.step
}

// Now returns the current time without advancing.
func (c *StepClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start + c.ticks*c.step
}

// Ticks returns how many times Next has been called.
func (c *StepClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
