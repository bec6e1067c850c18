package domain

import (
	"errors"
	"time"
)

// State is the lifecycle state of a session. Expired and Revoked are both
// terminal and both reject refresh; they differ only for audit purposes.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateRevoked State = "revoked"
)

// Session is the persisted record backing one issued refresh token. Only the
// SHA-256 fingerprint of the raw token is stored. Sessions are retained
// indefinitely for audit; revocation is the only mutation.
type Session struct {
	ID               string
	AccountID        string
	RefreshTokenHash string
	UserAgent        string
	IP               string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
}

// StateAt returns the session state at the given instant. Revocation wins over
// expiry so audit reporting reflects the operator action.
func (s *Session) StateAt(now time.Time) State {
	if s.RevokedAt != nil {
		return StateRevoked
	}
	if !now.Before(s.ExpiresAt) {
		return StateExpired
	}
	return StateActive
}

// Validate validates the session for persistence. The expiry must be strictly
// after creation; the database enforces the same with a CHECK constraint.
func (s *Session) Validate() error {
	if s.AccountID == "" {
		return errors.New("account id is required")
	}
	if s.RefreshTokenHash == "" {
		return errors.New("refresh token hash is required")
	}
	if !s.ExpiresAt.After(s.CreatedAt) {
		return errors.New("session expiry must be after creation")
	}
	return nil
}
