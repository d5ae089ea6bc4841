package user

import (
	"context"
	"time"
)

// GuestSubject is used when requests arrive without an authenticated subject.
const GuestSubject = "guest"

// User links an external auth subject to the internal numeric ID every
// conversation is keyed by.
type User struct {
	ID        uint      `json:"-"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository resolves auth subjects to users.
type Repository interface {
	// ResolveSubject returns the user for a subject, creating it on first
	// sight. Resolution must be idempotent under concurrent calls.
	ResolveSubject(ctx context.Context, subject string) (*User, error)
}
