package application

import "time"

// Clock is injected where elapsed time is measured, so tests stay deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
