// Package tracker holds the emotional factors and daily records a user keeps,
// together with the services that persist them.
package tracker

import (
	"errors"
	"time"

	"github.com/kalambet/emotrack/internal/calendar"
)

// Score bounds. Writes outside the range are clamped.
const (
	MinScore = 1
	MaxScore = 10
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidName   = errors.New("factor name must not be empty")
	ErrBuiltInFactor = errors.New("built-in factors cannot be removed")
)

// DefaultFactorNames are seeded, in this order, into an empty registry.
var DefaultFactorNames = []string{
	"Loneliness",
	"Insecurity / Fear",
	"Family",
	"Friendships",
	"Support network",
	"Stress / Anguish",
}

// Factor is a named emotional dimension rated once per day.
type Factor struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Order     int       `json:"order" yaml:"order"`
	Custom    bool      `json:"custom" yaml:"custom"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// DailyRecord holds the scores and notes of one calendar day.
type DailyRecord struct {
	ID        string         `json:"id"`
	Date      time.Time      `json:"date"`
	Scores    map[string]int `json:"scores"`
	Notes     string         `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ClampScore limits score to [MinScore, MaxScore].
func ClampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}

func (r *DailyRecord) Score(factorID string) (int, bool) {
	v, ok := r.Scores[factorID]
	return v, ok
}

// SetScore stores a clamped score for factorID and marks the record updated.
func (r *DailyRecord) SetScore(factorID string, score int, now time.Time) {
	if r.Scores == nil {
		r.Scores = make(map[string]int)
	}
	r.Scores[factorID] = ClampScore(score)
	r.UpdatedAt = now
}

// ClearScore removes the score for factorID. It reports whether one existed.
func (r *DailyRecord) ClearScore(factorID string, now time.Time) bool {
	if _, ok := r.Scores[factorID]; !ok {
		return false
	}
	delete(r.Scores, factorID)
	r.UpdatedAt = now
	return true
}

func (r *DailyRecord) SetNotes(notes string, now time.Time) {
	r.Notes = notes
	r.UpdatedAt = now
}

// AverageScore is the mean of all scores on the record, or 0 without scores.
func (r DailyRecord) AverageScore() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, v := range r.Scores {
		sum += v
	}
	return float64(sum) / float64(len(r.Scores))
}

// IsComplete reports whether the record holds exactly expected scores and
// none of them is zero. Writes are clamped, so in practice only the count matters.
func (r DailyRecord) IsComplete(expected int) bool {
	if len(r.Scores) != expected {
		return false
	}
	for _, v := range r.Scores {
		if v == 0 {
			return false
		}
	}
	return true
}

func (r DailyRecord) DayKey() string {
	return r.Date.Format(calendar.DayLayout)
}
