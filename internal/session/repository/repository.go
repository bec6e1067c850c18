package repository

import (
	"context"

	"contaplus/backend/internal/session/domain"
)

// Repository defines persistence for sessions. Creation and revocation are the
// only writes; rows are never deleted.
type Repository interface {
	// GetByRefreshTokenHash returns the session whose stored fingerprint matches
	// the given hash, or nil if none does.
	GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Revoke marks the session as revoked. Revoking an already revoked session
	// is a no-op, keeping the original revocation timestamp.
	Revoke(ctx context.Context, id string) error
}
