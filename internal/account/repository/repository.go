package repository

import (
	"context"
	"time"

	"contaplus/backend/internal/account/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByVerificationToken(ctx context.Context, tokenHash string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// MarkEmailVerified sets the verification timestamp and clears the pending
	// token so the link cannot be reused.
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
}
