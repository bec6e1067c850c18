package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"contaplus/backend/internal/company/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a company repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the company for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, rut, rut_dv, legal_name, fantasy_name, business_name, line_of_business,
			address, phone, email, subscription_state, incorporated_at, activity_start_at, created_at
		 FROM companies WHERE id = $1`, id)

	var (
		c                             domain.Company
		rut                           sql.NullInt32
		rutDv                         sql.NullString
		incorporatedAt, activityStart sql.NullTime
	)
	err := row.Scan(&c.ID, &rut, &rutDv, &c.LegalName, &c.FantasyName, &c.BusinessName,
		&c.LineOfBusiness, &c.Address, &c.Phone, &c.Email, &c.SubscriptionState,
		&incorporatedAt, &activityStart, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.RUT = rut.Int32
	c.RUTDv = rutDv.String
	c.IncorporatedAt = nullTimeToPtr(incorporatedAt)
	c.ActivityStartAt = nullTimeToPtr(activityStart)
	return &c, nil
}

// Create persists the company. The company must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Company) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (id, rut, rut_dv, legal_name, fantasy_name, business_name,
			line_of_business, address, phone, email, subscription_state,
			incorporated_at, activity_start_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, nullInt32(c.RUT), nullString(c.RUTDv), c.LegalName, c.FantasyName, c.BusinessName,
		c.LineOfBusiness, c.Address, c.Phone, c.Email, c.SubscriptionState,
		nullTime(c.IncorporatedAt), nullTime(c.ActivityStartAt), c.CreatedAt,
	)
	return err
}

// Update overwrites the company's registry fields. Returns an error if the update fails.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Company) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE companies
		 SET rut = $2, rut_dv = $3, legal_name = $4, fantasy_name = $5, business_name = $6,
			line_of_business = $7, address = $8, phone = $9, email = $10,
			subscription_state = $11, incorporated_at = $12, activity_start_at = $13
		 WHERE id = $1`,
		c.ID, nullInt32(c.RUT), nullString(c.RUTDv), c.LegalName, c.FantasyName, c.BusinessName,
		c.LineOfBusiness, c.Address, c.Phone, c.Email, c.SubscriptionState,
		nullTime(c.IncorporatedAt), nullTime(c.ActivityStartAt),
	)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt32(v int32) sql.NullInt32 {
	return sql.NullInt32{Int32: v, Valid: v != 0}
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
