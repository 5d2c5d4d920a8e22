package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/kalambet/emotrack/internal/reminder"
)

type reminderRequest struct {
	Enabled    *bool `json:"enabled" validate:"required"`
	Hour       *int  `json:"hour" validate:"required,min=0,max=23"`
	Minute     *int  `json:"minute" validate:"required,min=0,max=59"`
	DaysOfWeek []int `json:"days_of_week" validate:"omitempty,dive,min=0,max=6"`
}

type reminderResponse struct {
	Enabled     bool       `json:"enabled"`
	Hour        int        `json:"hour"`
	Minute      int        `json:"minute"`
	DaysOfWeek  []int      `json:"days_of_week"`
	DisplayTime string     `json:"display_time"`
	NextFire    *time.Time `json:"next_fire,omitempty"`
}

func newReminderResponse(st reminder.Status) reminderResponse {
	return reminderResponse{
		Enabled:     st.Settings.Enabled,
		Hour:        st.Settings.Hour,
		Minute:      st.Settings.Minute,
		DaysOfWeek:  st.Settings.DaysOfWeek,
		DisplayTime: st.Settings.DisplayTime(),
		NextFire:    st.NextFire,
	}
}

func writeReminderStatus(w http.ResponseWriter, deps AppDeps) {
	st, err := deps.Reminders.Status()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to read reminder: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, newReminderResponse(st))
}

func handleGetReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeReminderStatus(w, deps)
	}
}

func handlePutReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reminderRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		_, err := deps.Reminders.Update(reminder.Settings{
			Enabled:    *req.Enabled,
			Hour:       *req.Hour,
			Minute:     *req.Minute,
			DaysOfWeek: req.DaysOfWeek,
		})
		if errors.Is(err, reminder.ErrInvalidSettings) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save reminder: %v", err)
			return
		}
		writeReminderStatus(w, deps)
	}
}
