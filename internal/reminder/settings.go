// Package reminder keeps the daily check-in reminder settings and turns them
// into scheduled jobs that a worker delivers through a Notifier.
package reminder

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kalambet/emotrack/internal/calendar"
)

var ErrInvalidSettings = errors.New("invalid reminder settings")

// Settings configure the daily reminder. DaysOfWeek uses time.Weekday
// numbering (0 is Sunday).
type Settings struct {
	Enabled    bool  `json:"isEnabled" yaml:"enabled"`
	Hour       int   `json:"hour" yaml:"hour"`
	Minute     int   `json:"minute" yaml:"minute"`
	DaysOfWeek []int `json:"daysOfWeek" yaml:"days_of_week"`
}

// DefaultSettings fire every day at 20:00.
func DefaultSettings() Settings {
	return Settings{
		Enabled:    true,
		Hour:       20,
		Minute:     0,
		DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6},
	}
}

func (s Settings) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidSettings, s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidSettings, s.Minute)
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidSettings, d)
		}
	}
	return nil
}

// Normalize sorts DaysOfWeek and drops duplicates. An empty set becomes
// every day.
func (s Settings) Normalize() Settings {
	days := slices.Clone(s.DaysOfWeek)
	slices.Sort(days)
	days = slices.Compact(days)
	if len(days) == 0 {
		days = DefaultSettings().DaysOfWeek
	}
	s.DaysOfWeek = days
	return s
}

// DisplayTime renders the reminder time as HH:MM.
func (s Settings) DisplayTime() string {
	return calendar.FormatClock(s.Hour, s.Minute)
}
