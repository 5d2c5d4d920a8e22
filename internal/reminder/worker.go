package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/emotrack/internal/storage"
)

// JobStore abstracts the job queue operations the Worker needs.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetJob(id string) (storage.Job, error)
}

// Syncer schedules the next reminder from the current settings.
type Syncer interface {
	Sync() error
}

// Worker delivers daily_reminder jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	notifier Notifier
	next     Syncer
	poll     time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 30s.
func NewWorker(store JobStore, notifier Notifier, next Syncer, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Worker{
		store:    store,
		notifier: notifier,
		next:     next,
		poll:     pollInterval,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("reminder worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and delivers a single reminder job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	n := Notification{Title: NotificationTitle, Body: NotificationBody, FiredAt: w.now()}
	if err := w.notifier.Notify(ctx, n); err != nil {
		w.logger.Warn("reminder delivery failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
			return true, nil
		}
		// A job out of retries still needs a successor.
		if j, getErr := w.store.GetJob(job.ID); getErr == nil && j.Status == storage.JobFailed {
			w.reschedule()
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	w.reschedule()
	return true, nil
}

func (w *Worker) reschedule() {
	if w.next == nil {
		return
	}
	if err := w.next.Sync(); err != nil {
		w.logger.Error("scheduling next reminder failed", "error", err)
	}
}
