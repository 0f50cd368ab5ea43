package game

import "time"

// Clock is the simulation time shared by systems. It is owned by the caller
// and handed to the systems that need it; there is no global clock.
type Clock struct {
	Tick    time.Duration
	Step    uint64
	Elapsed time.Duration
}

func NewClock(tick time.Duration) *Clock {
	return &Clock{Tick: tick}
}

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() {
	c.Step++
	c.Elapsed += c.Tick
}
