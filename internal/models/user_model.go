package models

import (
	"strconv"
	"time"
)

// User statuses accepted by the users table.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBanned   = "banned"
)

// User is the local mirror of an identity held by the external provider.
type User struct {
	ID              int64      `json:"id"`
	FirebaseUID     string     `json:"firebase_uid"`
	Email           string     `json:"email"`
	Username        *string    `json:"username"`
	PhotoURL        *string    `json:"photo_url"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Actor returns the audit identity of u.
func (u *User) Actor() *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: strconv.FormatInt(u.ID, 10), Email: u.Email}
}

// NewUser carries the columns written when an identity is first mirrored.
type NewUser struct {
	FirebaseUID     string
	Email           string
	Username        *string
	PhotoURL        *string
	EmailVerifiedAt *time.Time
	Status          string
}

// UserPatch is a partial profile update; nil fields are left untouched.
type UserPatch struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=255"`
	PhotoURL *string `json:"photo_url" binding:"omitempty,url,max=2048"`
	Status   *string `json:"status" binding:"omitempty,oneof=active inactive banned"`
}

// IsEmpty reports whether no field is set.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.PhotoURL == nil && p.Status == nil
}

// IdentityRecord is the subset of the external account the service relies on.
type IdentityRecord struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
