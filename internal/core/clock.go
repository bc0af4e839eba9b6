package core

import "time"

// Clock reports the current server-local time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today is the calendar date of clock's current time.
func Today(clock Clock) Date {
	return DateOf(clock.Now())
}
