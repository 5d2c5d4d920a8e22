// Package calendar normalizes instants to calendar days in an explicit
// location. Records are keyed by the day they fall on, so every component
// that turns a time into a day goes through a Calendar rather than the
// ambient system locale.
package calendar

import (
	"fmt"
	"time"
)

// DayLayout is the layout of a day key (e.g. "2026-10-18").
const DayLayout = "2006-01-02"

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Calendar converts instants into calendar days of a fixed location.
// The zero value uses time.Local and the wall clock.
type Calendar struct {
	loc   *time.Location
	clock Clock
}

// New returns a Calendar for loc. A nil loc means time.Local, a nil clock
// means the wall clock.
func New(loc *time.Location, clock Clock) Calendar {
	return Calendar{loc: loc, clock: clock}
}

// LoadLocation resolves a configured time zone name. The empty string and
// "Local" both select the system location.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Now returns the current instant in the calendar's location.
func (c Calendar) Now() time.Time {
	if c.clock == nil {
		return time.Now().In(c.Location())
	}
	return c.clock.Now().In(c.Location())
}

// StartOfDay returns midnight of the calendar day t falls on.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	loc := c.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (c Calendar) Today() time.Time {
	return c.StartOfDay(c.Now())
}

// DaysAgo returns the instant n calendar days before now, keeping the time of day.
func (c Calendar) DaysAgo(n int) time.Time {
	return c.Now().AddDate(0, 0, -n)
}

// DayKey returns the natural key of the day t falls on.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(DayLayout)
}

// ParseDayKey parses a key produced by DayKey back into the start of that day.
func (c Calendar) ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, key, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", key, err)
	}
	return t, nil
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.DayKey(a) == c.DayKey(b)
}

// FormatLong renders a day for display, e.g. "18 October 2026".
func FormatLong(t time.Time) string {
	return t.Format("02 January 2006")
}

// FormatClock renders an hour and minute as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
