package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kalambet/emotrack/internal/storage"
)

// SettingsKey is the settings table key holding the JSON-encoded Settings.
const SettingsKey = "notificationSettings"

// KeyValueStore defines the storage operations the SettingsManager needs.
// Implemented by storage.Store.
type KeyValueStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// SettingsManager loads and persists reminder Settings.
type SettingsManager struct {
	store  KeyValueStore
	logger *slog.Logger

	mu sync.Mutex
}

func NewSettingsManager(store KeyValueStore) *SettingsManager {
	return &SettingsManager{store: store, logger: slog.Default()}
}

// Get returns the stored settings. A missing or unreadable value yields
// DefaultSettings.
func (m *SettingsManager) Get() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *SettingsManager) load() (Settings, error) {
	raw, err := m.store.GetSetting(SettingsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("reading reminder settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		m.logger.Warn("discarding unreadable reminder settings", "error", err)
		return DefaultSettings(), nil
	}
	if err := s.Validate(); err != nil {
		m.logger.Warn("discarding invalid reminder settings", "error", err)
		return DefaultSettings(), nil
	}
	return s.Normalize(), nil
}

// Save validates and stores s, returning the normalized value written.
func (m *SettingsManager) Save(s Settings) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(s)
}

func (m *SettingsManager) save(s Settings) (Settings, error) {
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	s = s.Normalize()
	data, err := json.Marshal(s)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding reminder settings: %w", err)
	}
	if err := m.store.SetSetting(SettingsKey, string(data)); err != nil {
		return Settings{}, fmt.Errorf("writing reminder settings: %w", err)
	}
	return s, nil
}

// UpdateTime changes only the reminder time.
func (m *SettingsManager) UpdateTime(hour, minute int) (Settings, error) {
	return m.modify(func(s *Settings) {
		s.Hour, s.Minute = hour, minute
	})
}

func (m *SettingsManager) SetEnabled(enabled bool) (Settings, error) {
	return m.modify(func(s *Settings) { s.Enabled = enabled })
}

func (m *SettingsManager) modify(fn func(*Settings)) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load()
	if err != nil {
		return Settings{}, err
	}
	fn(&s)
	return m.save(s)
}
