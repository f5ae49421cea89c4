package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/timeshare-be/internal/services"
	ws "github.com/isdelr/timeshare-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// UserNotifier pushes a message to the sessions of a single user.
type UserNotifier interface {
	SendToUser(userID string, message []byte)
}

// SharingHandler serves the caller's sharing code and code redemption.
type SharingHandler struct {
	service  services.SharingServiceProvider
	users    services.UserServiceProvider
	notifier UserNotifier
	interval time.Duration
}

// NewSharingHandler creates a new SharingHandler. interval is only used to
// tell clients how long a code lives.
func NewSharingHandler(service services.SharingServiceProvider, users services.UserServiceProvider, notifier UserNotifier, interval time.Duration) *SharingHandler {
	return &SharingHandler{service: service, users: users, notifier: notifier, interval: interval}
}

// GetCode returns the caller's current code, issuing one on first use.
func (h *SharingHandler) GetCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	code, err := h.service.GetOrCreateCode(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to get sharing code")
		respondError(w, http.StatusInternalServerError, "Failed to get sharing code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"code": code,
		"note": "Sharing codes rotate every " + humanInterval(h.interval),
	})
}

// Redeem connects the caller to the owner of the submitted code.
func (h *SharingHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Code) == "" {
		respondError(w, http.StatusBadRequest, "Sharing code is required")
		return
	}

	owner, err := h.service.Redeem(r.Context(), payload.Code, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeNotFound):
			respondError(w, http.StatusNotFound, "Invalid sharing code")
		case errors.Is(err, services.ErrSelfConnection):
			respondError(w, http.StatusBadRequest, "You cannot connect to yourself")
		case errors.Is(err, services.ErrAlreadyConnected):
			respondError(w, http.StatusBadRequest, "You are already connected to this user")
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to redeem sharing code")
			respondError(w, http.StatusInternalServerError, "Failed to connect")
		}
		return
	}

	if h.notifier != nil {
		viewerName := claims.Email
		if viewer, err := h.users.GetUserByID(r.Context(), claims.UserID); err == nil {
			viewerName = viewer.Name
		}
		h.notifier.SendToUser(owner.ID, ws.NewConnectionCreatedMessage(claims.UserID, viewerName))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("You can now view the work hours of %s.", owner.Name),
		"connectedUser": owner,
	})
}

// humanInterval renders whole minutes as "5 minutes" and anything else in
// Go duration notation.
func humanInterval(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
