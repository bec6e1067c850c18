package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when a password exceeds bcrypt's 72-byte
// input limit. Longer inputs would be silently truncated otherwise.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// maxPasswordBytes is bcrypt's effective input limit.
const maxPasswordBytes = 72

// Hasher derives and checks bcrypt hashes for account passwords. The cost
// factor comes from BCRYPT_COST; stored hashes carry their own cost, so rows
// written at an older cost keep verifying after the config changes.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the
// valid 4..31 range. Zero or negative means the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of the account password, suitable for the
// accounts.password_hash column. Returns ErrPasswordTooLong for inputs past
// the bcrypt limit.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies a login attempt against the stored hash. Returns nil on a
// match; any failure (mismatch, malformed hash) maps to invalid credentials
// at the caller.
func (h *Hasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
