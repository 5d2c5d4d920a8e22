package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalambet/emotrack/internal/calendar"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Log      LogConfig
	Calendar CalendarConfig
	Reminder ReminderConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// CalendarConfig selects the time zone days are counted in.
type CalendarConfig struct {
	TimeZone string
}

type ReminderConfig struct {
	// Command is run with the reminder title and body as its last two
	// arguments. Empty means reminders are only logged.
	Command      string
	PollInterval string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Calendar: CalendarConfig{
			TimeZone: "Local",
		},
		Reminder: ReminderConfig{
			PollInterval: "30s",
		},
	}
}

// Load reads configuration from the platform-native backend, a .env file in
// the working directory, and environment variables.
//
// On macOS the backend is UserDefaults (domain: com.emotrack.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/emotrack/config.json.
//
// Environment variables (EMOTRACK_*) override backend values on all
// platforms. Variables from .env never replace ones already set.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), ".env")
}

func loadWith(b ConfigBackend, dotenvPath string) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "[WARN] could not read %s: %v. Ignoring it.\n", dotenvPath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config server.port: %d is not a valid port", c.Server.Port)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("invalid config storage.data_dir: must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config calendar.time_zone: %w", err)
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level (debug, info, warn, error).
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("invalid config log.level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

func (c Config) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.Calendar.TimeZone)
}

// PollInterval parses Reminder.PollInterval.
func (c Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Reminder.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid config reminder.poll_interval %q: %w", c.Reminder.PollInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid config reminder.poll_interval %q: must be positive", c.Reminder.PollInterval)
	}
	return d, nil
}
