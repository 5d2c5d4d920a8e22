package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/reminder"
	"github.com/kalambet/emotrack/internal/tracker"
)

type AppDeps struct {
	Registry  *tracker.Registry
	Journal   *tracker.Journal
	Reminders *reminder.Service
}

func (d AppDeps) calendar() calendar.Calendar {
	return d.Journal.Calendar()
}

// NewAppHandler returns the HTTP API used by the CLI.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Get("/factors", handleListFactors(deps))
	r.Post("/factors", handleAddFactor(deps))
	r.Get("/factors/{id}", handleGetFactor(deps))
	r.Patch("/factors/{id}", handlePatchFactor(deps))
	r.Delete("/factors/{id}", handleDeleteFactor(deps))

	r.Get("/records", handleListRecords(deps))
	r.Delete("/records/{id}", handleDeleteRecord(deps))

	r.Get("/days/today", handleToday(deps))
	r.Get("/days/{date}", handleGetDay(deps))
	r.Put("/days/{date}/scores/{factorID}", handleSetScore(deps))
	r.Delete("/days/{date}/scores/{factorID}", handleClearScore(deps))
	r.Put("/days/{date}/notes", handleSetNotes(deps))

	r.Get("/stats", handleStats(deps))
	r.Get("/stats/factors/{id}", handleFactorStats(deps))

	r.Get("/settings/reminder", handleGetReminder(deps))
	r.Put("/settings/reminder", handlePutReminder(deps))

	return r
}

// parseDay accepts "today" or a YYYY-MM-DD day key.
func parseDay(cal calendar.Calendar, token string) (time.Time, error) {
	if token == "today" {
		return cal.Today(), nil
	}
	return cal.ParseDayKey(token)
}
