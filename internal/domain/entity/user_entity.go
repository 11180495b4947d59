package entity

import (
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in PasswordHash field
type User struct {
	ID                 string
	Email              string
	Nickname           string
	PasswordHash       string
	FirstName          string
	LastName           string
	Bio                string
	ProfilePictureURL  string
	GithubProfileURL   string
	LinkedinProfileURL string
	Role               Role
	EmailVerified      bool
	FailedLoginAttempt int
	IsLocked           bool
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Clone returns a copy safe to hand out of a store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// LockoutState is the per-user failed login bookkeeping.
type LockoutState struct {
	FailedAttempts int
	IsLocked       bool
}

// Lockout returns the user's current lockout state.
func (u *User) Lockout() LockoutState {
	return LockoutState{FailedAttempts: u.FailedLoginAttempt, IsLocked: u.IsLocked}
}
