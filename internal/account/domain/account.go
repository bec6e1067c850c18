package domain

import (
	"errors"
	"time"
)

// Role is the closed set of account roles. The integer values are the wire
// convention shared with the frontend; they never change meaning.
type Role int16

const (
	RoleAdmin      Role = 1
	RoleAccountant Role = 2
	RoleHR         Role = 3
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleHR:
		return true
	}
	return false
}

// Name returns the role's display name as used by the frontend.
func (r Role) Name() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleAccountant:
		return "contador"
	case RoleHR:
		return "rrhh"
	default:
		return "desconocido"
	}
}

// Account is a login credential record. Accounts are never physically deleted;
// verification and password changes are the only mutations in normal flow.
type Account struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	ProfileID    string // optional link to the person profile

	// Email verification state. EmailVerifiedAt nil means the account cannot
	// authenticate yet. The pending token hash and expiry are cleared once used.
	EmailVerifiedAt       *time.Time
	VerificationTokenHash string
	VerificationExpiresAt *time.Time

	CreatedAt time.Time
}

// Verified reports whether the account's email has been confirmed.
func (a *Account) Verified() bool {
	return a.EmailVerifiedAt != nil
}

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if !a.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}
