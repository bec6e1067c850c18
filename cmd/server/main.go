package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	accountrepo "contaplus/backend/internal/account/repository"
	"contaplus/backend/internal/audit"
	audithandler "contaplus/backend/internal/audit/handler"
	auditrepo "contaplus/backend/internal/audit/repository"
	authhandler "contaplus/backend/internal/auth/handler"
	authservice "contaplus/backend/internal/auth/service"
	companyhandler "contaplus/backend/internal/company/handler"
	companyrepo "contaplus/backend/internal/company/repository"
	"contaplus/backend/internal/config"
	"contaplus/backend/internal/db"
	"contaplus/backend/internal/mail"
	profilerepo "contaplus/backend/internal/profile/repository"
	"contaplus/backend/internal/security"
	"contaplus/backend/internal/server"
	"contaplus/backend/internal/server/middleware"
	sessionrepo "contaplus/backend/internal/session/repository"
	"contaplus/backend/internal/telemetry/otel"
)

const serviceName = "contaplus-auth"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, false)
	if err != nil {
		log.Fatal().Err(err).Msg("init telemetry")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	accounts := accountrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)
	companies := companyrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
	mailer := mail.NewLogMailer(cfg.BaseURL, log.Logger)

	authSvc := authservice.NewAuthService(accounts, profiles, companies, sessions,
		hasher, tokens, mailer, cfg.SessionTTL(), cfg.EmailVerificationTTL())
	auditLogger := audit.NewLogger(audits, middleware.GetClientIP)

	router := server.New(server.Options{
		Log:            log.Logger,
		Tokens:         tokens,
		Auth:           authhandler.NewAuthHandler(authSvc, auditLogger, log.Logger),
		Company:        companyhandler.NewCompanyHandler(companies, auditLogger, log.Logger),
		Audit:          audithandler.NewAuditHandler(audits, log.Logger),
		AllowedOrigins: cfg.AllowedOriginsList(),
		Ready:          func() bool { return conn.Ping() == nil },
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting contaplus-auth")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
