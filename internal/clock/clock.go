package clock

import (
	"os"
	"strconv"
	"time"
)

// Clock supplies the current hour of day. Availability predicates read it
// fresh on every evaluation, so substituting a Fixed clock makes time-gated
// behavior deterministic in tests and local runs.
type Clock interface {
	Hour() int
}

type systemClock struct{}

func (systemClock) Hour() int { return time.Now().Hour() }

// System returns a clock backed by the local wall clock.
func System() Clock { return systemClock{} }

// Fixed is a clock pinned to a single hour.
type Fixed int

func (f Fixed) Hour() int { return int(f) }

// FromOverride picks the clock for availability checks. The FAKE_NOW_HOUR
// environment variable wins, then an explicit config override, then the
// system clock.
func FromOverride(configHour *int) Clock {
	if v := os.Getenv("FAKE_NOW_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return Fixed(h)
		}
	}
	if configHour != nil {
		return Fixed(*configHour)
	}
	return System()
}

// Window is a half-open daily interval [StartHour, EndHour).
type Window struct {
	StartHour int
	EndHour   int
}

func (w Window) Contains(hour int) bool {
	return w.StartHour <= hour && hour < w.EndHour
}
