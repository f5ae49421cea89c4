package models

import "time"

// Scheduler states.
const (
	RotationStopped = "stopped"
	RotationRunning = "running"
)

// RotationStatus describes the code rotation scheduler.
type RotationStatus struct {
	State          string     `json:"status"`
	Interval       string     `json:"interval"`
	AlreadyRunning bool       `json:"alreadyRunning,omitempty"`
	NotRunning     bool       `json:"notRunning,omitempty"`
	Passes         int64      `json:"passes"`
	LastRunAt      *time.Time `json:"lastRunAt,omitempty"`
	LastError      string     `json:"lastError,omitempty"`
}
