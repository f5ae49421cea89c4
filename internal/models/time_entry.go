package models

import "time"

// TimeEntry is a single clock-in/clock-out session.
type TimeEntry struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	ClockIn         time.Time  `json:"clockIn"`
	ClockOut        *time.Time `json:"clockOut,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Note            string     `json:"note,omitempty"`
}

// IsOpen reports whether the entry has not been clocked out yet.
func (e TimeEntry) IsOpen() bool {
	return e.ClockOut == nil
}

// TeamMember summarizes a connected user and their tracked time.
type TeamMember struct {
	PublicUser
	ConnectedAt  time.Time `json:"connectedAt"`
	TotalMinutes int       `json:"totalMinutes"`
	TodayMinutes int       `json:"todayMinutes"`
	Sessions     int       `json:"completedSessions"`
}

// TeamOverview lists the people a user can view and the people viewing them.
type TeamOverview struct {
	Owners  []TeamMember `json:"owners"`
	Viewers []TeamMember `json:"viewers"`
	Stats   TeamStats    `json:"stats"`
}

// TeamStats aggregates a TeamOverview.
type TeamStats struct {
	TotalOwners  int `json:"totalOwners"`
	TotalViewers int `json:"totalViewers"`
	TotalMinutes int `json:"totalMinutes"`
}
