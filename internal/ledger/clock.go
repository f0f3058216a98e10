package ledger

import (
	"time"

	"cashbook/internal/core"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FixedClock always returns the same instant.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Today returns the calendar date of c.Now() in loc. A nil loc means time.Local.
func Today(c Clock, loc *time.Location) core.Date {
	if loc == nil {
		loc = time.Local
	}
	return core.DateOf(c.Now().In(loc))
}
