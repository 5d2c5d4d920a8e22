package reminder

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/storage"
)

// JobType identifies reminder jobs in the queue.
const JobType = "daily_reminder"

// NextFire returns the first instant strictly after after that falls on
// hour:minute in loc on one of days. An empty days set allows every day.
// It returns the zero time if days holds no valid weekday.
func NextFire(after time.Time, hour, minute int, days []int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := after.In(loc)
	y, m, d := local.Date()
	for i := 0; i <= 7; i++ {
		candidate := time.Date(y, m, d+i, hour, minute, 0, 0, loc)
		if !candidate.After(after) {
			continue
		}
		if len(days) == 0 || slices.Contains(days, int(candidate.Weekday())) {
			return candidate
		}
	}
	return time.Time{}
}

// JobQueue defines the queue operations the Scheduler needs.
// Implemented by storage.Store.
type JobQueue interface {
	ReplacePendingJobs(jobType string, job storage.Job) error
	CancelPendingJobs(jobType string) (int64, error)
	NextPendingJob(jobType string) (*storage.Job, error)
}

type jobPayload struct {
	Hour   int   `json:"hour"`
	Minute int   `json:"minute"`
	Days   []int `json:"days"`
}

// Scheduler keeps at most one pending reminder job in the queue.
type Scheduler struct {
	queue JobQueue
	cal   calendar.Calendar
	newID func() string
}

func NewScheduler(queue JobQueue, cal calendar.Calendar) *Scheduler {
	return &Scheduler{queue: queue, cal: cal, newID: uuid.NewString}
}

// Schedule replaces any pending reminder with one firing daily at hour:minute.
func (s *Scheduler) Schedule(hour, minute int) (time.Time, error) {
	return s.ScheduleOn(hour, minute, nil)
}

// ScheduleOn is Schedule restricted to the given weekdays.
func (s *Scheduler) ScheduleOn(hour, minute int, days []int) (time.Time, error) {
	at := NextFire(s.cal.Now(), hour, minute, days, s.cal.Location())
	if at.IsZero() {
		return time.Time{}, fmt.Errorf("%w: no valid day of week in %v", ErrInvalidSettings, days)
	}
	payload, err := json.Marshal(jobPayload{Hour: hour, Minute: minute, Days: days})
	if err != nil {
		return time.Time{}, fmt.Errorf("encoding reminder payload: %w", err)
	}
	job := storage.Job{
		ID:          s.newID(),
		Type:        JobType,
		PayloadJSON: string(payload),
		RunAfter:    at,
	}
	if err := s.queue.ReplacePendingJobs(JobType, job); err != nil {
		return time.Time{}, fmt.Errorf("scheduling reminder: %w", err)
	}
	return at, nil
}

// Cancel removes any pending reminder.
func (s *Scheduler) Cancel() error {
	if _, err := s.queue.CancelPendingJobs(JobType); err != nil {
		return fmt.Errorf("cancelling reminder: %w", err)
	}
	return nil
}

// Pending returns when the next reminder fires, and false if none is scheduled.
func (s *Scheduler) Pending() (time.Time, bool, error) {
	job, err := s.queue.NextPendingJob(JobType)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading pending reminder: %w", err)
	}
	if job == nil {
		return time.Time{}, false, nil
	}
	return job.RunAfter.In(s.cal.Location()), true, nil
}
