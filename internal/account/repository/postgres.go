package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"contaplus/backend/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, phone, password_hash, role, profile_id,
	email_verified_at, verification_token_hash, verification_expires_at, created_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByEmail returns the account for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// GetByVerificationToken returns the account holding the pending verification
// token, or nil if no account matches.
func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, tokenHash string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE verification_token_hash = $1`, tokenHash)
	return scanAccount(row)
}

// Create persists the account. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, phone, password_hash, role, profile_id,
			email_verified_at, verification_token_hash, verification_expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Email, nullString(a.Phone), a.PasswordHash, int16(a.Role), nullString(a.ProfileID),
		nullTime(a.EmailVerifiedAt), nullString(a.VerificationTokenHash), nullTime(a.VerificationExpiresAt),
		a.CreatedAt,
	)
	return err
}

// MarkEmailVerified sets email_verified_at and clears the pending token and its expiry.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET email_verified_at = $2, verification_token_hash = NULL, verification_expires_at = NULL
		 WHERE id = $1`, id, at)
	return err
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		a                domain.Account
		phone, profileID sql.NullString
		verifiedAt       sql.NullTime
		tokenHash        sql.NullString
		tokenExpiresAt   sql.NullTime
		role             int16
	)
	err := row.Scan(&a.ID, &a.Email, &phone, &a.PasswordHash, &role, &profileID,
		&verifiedAt, &tokenHash, &tokenExpiresAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Phone = phone.String
	a.ProfileID = profileID.String
	a.Role = domain.Role(role)
	a.EmailVerifiedAt = nullTimeToPtr(verifiedAt)
	a.VerificationTokenHash = tokenHash.String
	a.VerificationExpiresAt = nullTimeToPtr(tokenExpiresAt)
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
