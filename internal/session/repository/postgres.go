package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"contaplus/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByRefreshTokenHash returns the session for the given token fingerprint, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, refresh_token_hash, user_agent, ip, created_at, expires_at, revoked_at
		 FROM sessions WHERE refresh_token_hash = $1`, hash)

	var (
		s             domain.Session
		userAgent, ip sql.NullString
		revokedAt     sql.NullTime
	)
	err := row.Scan(&s.ID, &s.AccountID, &s.RefreshTokenHash, &userAgent, &ip,
		&s.CreatedAt, &s.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.UserAgent = userAgent.String
	s.IP = ip.String
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return &s, nil
}

// Create persists the session as a single atomic write. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, account_id, refresh_token_hash, user_agent, ip, created_at, expires_at, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.AccountID, s.RefreshTokenHash,
		sql.NullString{String: s.UserAgent, Valid: s.UserAgent != ""},
		sql.NullString{String: s.IP, Valid: s.IP != ""},
		s.CreatedAt, s.ExpiresAt, nullTime(s.RevokedAt),
	)
	return err
}

// Revoke marks the session with the given id as revoked. Idempotent: an already
// revoked session keeps its original revocation timestamp.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
