package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/timeshare-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TeamHandler serves the caller's connections.
type TeamHandler struct {
	service services.TeamServiceProvider
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(service services.TeamServiceProvider) *TeamHandler {
	return &TeamHandler{service: service}
}

// Members lists the users the caller can view and the users viewing them.
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	overview, err := h.service.Overview(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load team members")
		respondError(w, http.StatusInternalServerError, "Failed to load team members")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// Profile shows the profile of a user connected with the caller.
func (h *TeamHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "id")
	profile, err := h.service.Profile(r.Context(), claims.UserID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "Use /users/me for your own profile")
		case errors.Is(err, services.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrForbidden):
			respondError(w, http.StatusForbidden, "You can only view profiles of your connections")
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Str("target_id", targetID).Msg("Failed to load profile")
			respondError(w, http.StatusInternalServerError, "Failed to load profile")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"user": profile})
}
