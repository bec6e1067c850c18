// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev account (dev@contaplus.cl) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	accountdomain "contaplus/backend/internal/account/domain"
	accountrepo "contaplus/backend/internal/account/repository"
	companydomain "contaplus/backend/internal/company/domain"
	companyrepo "contaplus/backend/internal/company/repository"
	"contaplus/backend/internal/config"
	"contaplus/backend/internal/db"
	profiledomain "contaplus/backend/internal/profile/domain"
	profilerepo "contaplus/backend/internal/profile/repository"
	"contaplus/backend/internal/security"
)

const (
	devEmail    = "dev@contaplus.cl"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	accounts := accountrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)
	companies := companyrepo.NewPostgresRepository(conn)

	existing, err := accounts.GetByEmail(ctx, devEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@contaplus.cl exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	company := &companydomain.Company{
		ID:                uuid.New().String(),
		RUT:               76543210,
		RUTDv:             "K",
		LegalName:         "Contaplus Demo SpA",
		FantasyName:       "Contaplus Demo",
		LineOfBusiness:    "servicios contables",
		Email:             "contacto@contaplus.cl",
		SubscriptionState: 1,
		CreatedAt:         now,
	}
	if err := companies.Create(ctx, company); err != nil {
		log.Fatalf("create company: %v", err)
	}

	profile := &profiledomain.Profile{
		ID:              uuid.New().String(),
		CompanyID:       company.ID,
		FirstName:       "Dev",
		PaternalSurname: "Contaplus",
		RUT:             12345678,
		RUTDv:           "5",
		CreatedAt:       now,
	}
	if err := profiles.Create(ctx, profile); err != nil {
		log.Fatalf("create profile: %v", err)
	}

	verifiedAt := now
	account := &accountdomain.Account{
		ID:              uuid.New().String(),
		Email:           devEmail,
		PasswordHash:    passwordHash,
		Role:            accountdomain.RoleAdmin,
		ProfileID:       profile.ID,
		EmailVerifiedAt: &verifiedAt,
		CreatedAt:       now,
	}
	if err := accounts.Create(ctx, account); err != nil {
		log.Fatalf("create account: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Dev login: %s / %s", devEmail, devPassword)
}
