package repository

import (
	"context"
	"database/sql"
	"errors"

	"contaplus/backend/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the profile for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, company_id, first_name, paternal_surname, maternal_surname, rut, rut_dv, address, created_at
		 FROM profiles WHERE id = $1`, id)

	var (
		p         domain.Profile
		companyID sql.NullString
		rut       sql.NullInt32
		rutDv     sql.NullString
		address   sql.NullString
	)
	err := row.Scan(&p.ID, &companyID, &p.FirstName, &p.PaternalSurname, &p.MaternalSurname,
		&rut, &rutDv, &address, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.CompanyID = companyID.String
	p.RUT = rut.Int32
	p.RUTDv = rutDv.String
	p.Address = address.String
	return &p, nil
}

// Create persists the profile. The profile must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, company_id, first_name, paternal_surname, maternal_surname, rut, rut_dv, address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID,
		sql.NullString{String: p.CompanyID, Valid: p.CompanyID != ""},
		p.FirstName, p.PaternalSurname, p.MaternalSurname,
		sql.NullInt32{Int32: p.RUT, Valid: p.RUT != 0},
		sql.NullString{String: p.RUTDv, Valid: p.RUTDv != ""},
		sql.NullString{String: p.Address, Valid: p.Address != ""},
		p.CreatedAt,
	)
	return err
}
