package reminder

import (
	"log/slog"
	"time"
)

// Status is the reminder state shown to users.
type Status struct {
	Settings Settings   `json:"settings" yaml:"settings"`
	NextFire *time.Time `json:"next_fire,omitempty" yaml:"next_fire,omitempty"`
}

// Service applies settings changes and keeps the job queue in step with them.
type Service struct {
	settings  *SettingsManager
	scheduler *Scheduler
	logger    *slog.Logger
}

func NewService(settings *SettingsManager, scheduler *Scheduler) *Service {
	return &Service{settings: settings, scheduler: scheduler, logger: slog.Default()}
}

func (s *Service) Settings() (Settings, error) {
	return s.settings.Get()
}

// Status returns the settings and the next scheduled fire time, if any.
func (s *Service) Status() (Status, error) {
	cur, err := s.settings.Get()
	if err != nil {
		return Status{}, err
	}
	st := Status{Settings: cur}
	at, ok, err := s.scheduler.Pending()
	if err != nil {
		return Status{}, err
	}
	if ok {
		st.NextFire = &at
	}
	return st, nil
}

// Update replaces the whole settings value.
func (s *Service) Update(next Settings) (Settings, error) {
	saved, err := s.settings.Save(next)
	if err != nil {
		return Settings{}, err
	}
	return saved, s.apply(saved)
}

// UpdateTime stores a new reminder time and reschedules if enabled.
func (s *Service) UpdateTime(hour, minute int) (Settings, error) {
	saved, err := s.settings.UpdateTime(hour, minute)
	if err != nil {
		return Settings{}, err
	}
	return saved, s.apply(saved)
}

// SetEnabled stores the flag, then schedules or cancels the reminder.
func (s *Service) SetEnabled(enabled bool) (Settings, error) {
	saved, err := s.settings.SetEnabled(enabled)
	if err != nil {
		return Settings{}, err
	}
	return saved, s.apply(saved)
}

// Sync makes the job queue match the stored settings.
func (s *Service) Sync() error {
	cur, err := s.settings.Get()
	if err != nil {
		return err
	}
	return s.apply(cur)
}

func (s *Service) apply(cur Settings) error {
	if !cur.Enabled {
		return s.scheduler.Cancel()
	}
	at, err := s.scheduler.ScheduleOn(cur.Hour, cur.Minute, cur.DaysOfWeek)
	if err != nil {
		return err
	}
	s.logger.Debug("reminder scheduled", "at", at)
	return nil
}
