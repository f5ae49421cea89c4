package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/timeshare-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TimeHandler handles clocking in and out and listing time entries.
type TimeHandler struct {
	service services.TimeServiceProvider
}

// NewTimeHandler creates a new TimeHandler.
func NewTimeHandler(service services.TimeServiceProvider) *TimeHandler {
	return &TimeHandler{service: service}
}

// ClockIn opens a session for the caller.
func (h *TimeHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		Note string `json:"note"`
	}
	// the body is optional
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.service.ClockIn(r.Context(), claims.UserID, payload.Note)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyClockedIn) {
			respondError(w, http.StatusConflict, "Already clocked in")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to clock in")
		respondError(w, http.StatusInternalServerError, "Failed to clock in")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// ClockOut closes the caller's open session.
func (h *TimeHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	entry, err := h.service.ClockOut(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotClockedIn) {
			respondError(w, http.StatusConflict, "Not clocked in")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to clock out")
		respondError(w, http.StatusInternalServerError, "Failed to clock out")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// Status reports whether the caller is clocked in.
func (h *TimeHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	active, err := h.service.ActiveEntry(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load clock status")
		respondError(w, http.StatusInternalServerError, "Failed to load clock status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"clockedIn":   active != nil,
		"activeEntry": active,
	})
}

// ListEntries returns the caller's entries, or those of ?userId= when the
// caller may view that user.
func (h *TimeHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	ownerID := r.URL.Query().Get("userId")
	entries, err := h.service.ListEntries(r.Context(), claims.UserID, ownerID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			respondError(w, http.StatusForbidden, "You do not have access to this user's time entries")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Str("owner_id", ownerID).Msg("Failed to list time entries")
		respondError(w, http.StatusInternalServerError, "Failed to list time entries")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// UpdateEntry corrects the clock-out time of one of the caller's entries.
func (h *TimeHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		ClockOut *time.Time `json:"clockOut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.ClockOut == nil {
		respondError(w, http.StatusBadRequest, "Clock out time is required")
		return
	}

	id := chi.URLParam(r, "id")
	entry, err := h.service.UpdateClockOut(r.Context(), claims.UserID, id, *payload.ClockOut)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEntryNotFound):
			respondError(w, http.StatusNotFound, "Time entry not found")
		case errors.Is(err, services.ErrForbidden):
			respondError(w, http.StatusForbidden, "You can only edit your own time entries")
		case errors.Is(err, services.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "Clock out time must be after clock in time")
		default:
			log.Error().Err(err).Str("entry_id", id).Msg("Failed to update time entry")
			respondError(w, http.StatusInternalServerError, "Failed to update time entry")
		}
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// DeleteEntry removes one of the caller's entries.
func (h *TimeHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteEntry(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			respondError(w, http.StatusNotFound, "Time entry not found")
			return
		}
		log.Error().Err(err).Str("entry_id", id).Msg("Failed to delete time entry")
		respondError(w, http.StatusInternalServerError, "Failed to delete time entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
