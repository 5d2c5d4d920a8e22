package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/emotrack/internal/tracker"
)

type createFactorRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type patchFactorRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=80"`
	Active *bool   `json:"active"`
}

// factorError maps registry errors onto HTTP responses.
func factorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "factor not found")
	case errors.Is(err, tracker.ErrInvalidName):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, tracker.ErrBuiltInFactor):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func handleListFactors(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			factors []tracker.Factor
			err     error
		)
		if r.URL.Query().Get("active") == "true" {
			factors, err = deps.Registry.ListActive()
		} else {
			factors, err = deps.Registry.ListAll()
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list factors: %v", err)
			return
		}
		if factors == nil {
			factors = []tracker.Factor{}
		}
		writeJSON(w, http.StatusOK, factors)
	}
}

func handleAddFactor(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFactorRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		f, err := deps.Registry.Add(req.Name)
		if err != nil {
			factorError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

func handleGetFactor(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := deps.Registry.Get(chi.URLParam(r, "id"))
		if err != nil {
			factorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func handlePatchFactor(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req patchFactorRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Name == nil && req.Active == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one of name or active is required")
			return
		}

		f, err := deps.Registry.Get(id)
		if err != nil {
			factorError(w, err)
			return
		}
		if req.Name != nil {
			if f, err = deps.Registry.Rename(id, *req.Name); err != nil {
				factorError(w, err)
				return
			}
		}
		if req.Active != nil {
			if f, err = deps.Registry.SetActive(id, *req.Active); err != nil {
				factorError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func handleDeleteFactor(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Registry.Remove(chi.URLParam(r, "id")); err != nil {
			factorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
