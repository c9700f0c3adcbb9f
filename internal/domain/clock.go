package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package-level time source for signal extraction.
// Tests freeze it with SetClock so derived ages and ownership spans are stable.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by ExtractSignals. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}
