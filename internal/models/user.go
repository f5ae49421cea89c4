package models

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Role         string    `json:"role"`
	SharingCode  *string   `json:"-"` // Only handed out through the sharing-code endpoint
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the identity revealed to another user, e.g. after redeeming their code.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips everything but the public identity.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserProfile is what a connected user may see of another account.
type UserProfile struct {
	PublicUser
	Role        string    `json:"role"`
	MemberSince time.Time `json:"memberSince"`
	ConnectedAt time.Time `json:"connectedAt"`
	// CanViewHours is set when the caller is the viewer of the connection.
	CanViewHours bool `json:"canViewHours"`
}
