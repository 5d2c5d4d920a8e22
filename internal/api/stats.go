package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/emotrack/internal/stats"
)

func handleStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := stats.Load(deps.Journal, deps.Registry, deps.calendar())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load statistics: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, snap.Summary())
	}
}

func handleFactorStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := stats.Load(deps.Journal, deps.Registry, deps.calendar())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load statistics: %v", err)
			return
		}
		fs, ok := snap.Factor(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "active factor not found")
			return
		}
		writeJSON(w, http.StatusOK, fs)
	}
}
