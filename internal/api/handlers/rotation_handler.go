package handlers

import (
	"net/http"

	"github.com/isdelr/timeshare-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// RotationHandler exposes the code rotation scheduler to administrators.
type RotationHandler struct {
	rotator monitoring.CodeRotationController
}

// NewRotationHandler creates a new RotationHandler.
func NewRotationHandler(rotator monitoring.CodeRotationController) *RotationHandler {
	return &RotationHandler{rotator: rotator}
}

// Start starts the scheduler. Starting a running scheduler is reported, not an error.
// The first pass runs before the response is written, bounded by
// monitoring.StartPassTimeout; a failed pass shows up in lastError.
func (h *RotationHandler) Start(w http.ResponseWriter, r *http.Request) {
	status := h.rotator.Start()
	log.Info().Bool("already_running", status.AlreadyRunning).Msg("Code rotation start requested")
	respondJSON(w, http.StatusOK, status)
}

// Stop stops the scheduler.
func (h *RotationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	status := h.rotator.Stop()
	log.Info().Bool("not_running", status.NotRunning).Msg("Code rotation stop requested")
	respondJSON(w, http.StatusOK, status)
}

// Status reports the scheduler state.
func (h *RotationHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rotator.Status())
}
