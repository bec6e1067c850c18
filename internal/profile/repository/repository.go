package repository

import (
	"context"

	"contaplus/backend/internal/profile/domain"
)

// Repository defines persistence for profiles.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
}
