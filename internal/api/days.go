package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/tracker"
)

// dayResponse is a record plus the values derived from it.
type dayResponse struct {
	tracker.DailyRecord
	Day          string  `json:"day"`
	AverageScore float64 `json:"average_score"`
	Complete     bool    `json:"complete"`
}

func newDayResponse(rec tracker.DailyRecord, activeFactors int) dayResponse {
	return dayResponse{
		DailyRecord:  rec,
		Day:          rec.DayKey(),
		AverageScore: rec.AverageScore(),
		Complete:     rec.IsComplete(activeFactors),
	}
}

type scoreRequest struct {
	Score *int `json:"score" validate:"required"`
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

func dayView(deps AppDeps, rec tracker.DailyRecord) (dayResponse, error) {
	active, err := deps.Registry.ListActive()
	if err != nil {
		return dayResponse{}, err
	}
	return newDayResponse(rec, len(active)), nil
}

func writeDay(w http.ResponseWriter, deps AppDeps, rec *tracker.DailyRecord) {
	view, err := dayView(deps, *rec)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to list factors: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// pathDay parses the {date} URL parameter, writing a 400 on failure.
func pathDay(w http.ResponseWriter, r *http.Request, cal calendar.Calendar) (time.Time, bool) {
	day, err := parseDay(cal, chi.URLParam(r, "date"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid date: %v", err)
		return time.Time{}, false
	}
	return day, true
}

func handleToday(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := deps.Journal.GetOrCreateToday()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load today: %v", err)
			return
		}
		writeDay(w, deps, rec)
	}
}

func handleGetDay(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := pathDay(w, r, deps.calendar())
		if !ok {
			return
		}
		rec, err := deps.Journal.GetForDate(day)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load day: %v", err)
			return
		}
		if rec == nil {
			httpError(w, http.StatusNotFound, "not_found", "no record for %s", deps.calendar().DayKey(day))
			return
		}
		writeDay(w, deps, rec)
	}
}

// scorableFactor checks that factorID names an active factor.
func scorableFactor(w http.ResponseWriter, deps AppDeps, factorID string) bool {
	f, err := deps.Registry.Get(factorID)
	if err != nil {
		factorError(w, err)
		return false
	}
	if !f.Active {
		httpError(w, http.StatusConflict, "conflict", "factor %q is inactive", f.Name)
		return false
	}
	return true
}

func handleSetScore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := pathDay(w, r, deps.calendar())
		if !ok {
			return
		}
		factorID := chi.URLParam(r, "factorID")
		var req scoreRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if !scorableFactor(w, deps, factorID) {
			return
		}
		rec, err := deps.Journal.SetScore(day, factorID, *req.Score)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save score: %v", err)
			return
		}
		writeDay(w, deps, rec)
	}
}

func handleClearScore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := pathDay(w, r, deps.calendar())
		if !ok {
			return
		}
		rec, err := deps.Journal.ClearScore(day, chi.URLParam(r, "factorID"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to clear score: %v", err)
			return
		}
		writeDay(w, deps, rec)
	}
}

func handleSetNotes(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := pathDay(w, r, deps.calendar())
		if !ok {
			return
		}
		var req notesRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		rec, err := deps.Journal.SetNotes(day, req.Notes)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save notes: %v", err)
			return
		}
		writeDay(w, deps, rec)
	}
}

func handleListRecords(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal := deps.calendar()
		q := r.URL.Query()
		limit := parseIntParam(r, "limit", 0, 0)

		var (
			records []tracker.DailyRecord
			err     error
		)
		if q.Get("from") == "" && q.Get("to") == "" {
			records, err = deps.Journal.ListAll()
		} else {
			// An open lower bound sorts before every day key.
			var from time.Time
			to := cal.Now()
			if s := q.Get("from"); s != "" {
				if from, err = parseDay(cal, s); err != nil {
					httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid from: %v", err)
					return
				}
			}
			if s := q.Get("to"); s != "" {
				if to, err = parseDay(cal, s); err != nil {
					httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid to: %v", err)
					return
				}
			}
			records, err = deps.Journal.ListInRange(from, to)
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list records: %v", err)
			return
		}
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		active, err := deps.Registry.ListActive()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list factors: %v", err)
			return
		}
		views := make([]dayResponse, len(records))
		for i, rec := range records {
			views[i] = newDayResponse(rec, len(active))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func handleDeleteRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Journal.Delete(chi.URLParam(r, "id")); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete record: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
