package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

type Factor struct {
	ID        string
	Name      string
	SortOrder int
	IsCustom  bool
	IsActive  bool
	CreatedAt time.Time
}

// DayRecord is one row of daily_records. Day is the YYYY-MM-DD natural key.
type DayRecord struct {
	ID        string
	Day       string
	Scores    map[string]int // stored as a JSON object
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
