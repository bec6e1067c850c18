// Package server assembles the HTTP router and its middleware stack.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	audithandler "contaplus/backend/internal/audit/handler"
	authhandler "contaplus/backend/internal/auth/handler"
	companyhandler "contaplus/backend/internal/company/handler"
	"contaplus/backend/internal/security"
	"contaplus/backend/internal/server/middleware"
)

// Options configures the router.
type Options struct {
	Log            zerolog.Logger
	Tokens         *security.TokenProvider
	Auth           *authhandler.AuthHandler
	Company        *companyhandler.CompanyHandler
	Audit          *audithandler.AuditHandler
	AllowedOrigins []string
	// Ready reports whether the service can take traffic (e.g. DB reachable).
	// nil means always ready.
	Ready func() bool
}

// New builds the HTTP handler: CORS, rate limiting, request logging, client
// info capture, health and metrics endpoints, public auth routes, and the
// token-guarded API routes, all wrapped in OTel HTTP instrumentation.
func New(opts Options) http.Handler {
	r := chi.NewRouter()

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	r.Use(httprate.Limit(100, time.Minute))
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(middleware.ClientInfo)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil && !opts.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if opts.Auth != nil {
		opts.Auth.Mount(r)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(opts.Tokens))
		if opts.Auth != nil {
			pr.Get("/auth/me", opts.Auth.Me)
		}
		if opts.Company != nil {
			opts.Company.Mount(pr)
		}
		if opts.Audit != nil {
			opts.Audit.Mount(pr)
		}
	})

	return otelhttp.NewHandler(r, "http.server")
}
