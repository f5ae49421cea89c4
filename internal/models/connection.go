package models

import "time"

// Connection lets ViewerID see the time records of OwnerID.
type Connection struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ViewerID  string    `json:"viewerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CodeAssignment pairs a user with the sharing code they are about to receive.
type CodeAssignment struct {
	UserID string
	Code   string
}
