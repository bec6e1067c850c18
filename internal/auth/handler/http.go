package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"contaplus/backend/internal/audit"
	"contaplus/backend/internal/auth/service"
	"contaplus/backend/internal/server/middleware"
	"contaplus/backend/internal/telemetry/metrics"
)

// Service is the auth surface the HTTP handler depends on.
type Service interface {
	Register(ctx context.Context, p service.RegisterParams) (*service.RegisterResult, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	Login(ctx context.Context, email, password string, client service.ClientInfo) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler exposes the auth flows over HTTP.
type AuthHandler struct {
	svc   Service
	audit audit.AuditLogger
	log   zerolog.Logger
}

// NewAuthHandler returns an AuthHandler. auditLogger may be nil to disable audit events.
func NewAuthHandler(svc Service, auditLogger audit.AuditLogger, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, audit: auditLogger, log: log}
}

// Mount registers the public auth routes on r. The /auth/me route is mounted
// separately by the router behind the auth middleware.
func (h *AuthHandler) Mount(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Get("/auth/verify-email/{token}", h.verifyEmail)
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
	r.Post("/auth/logout", h.logout)
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"first_name"`
	PaternalSurname string `json:"paternal_surname"`
	MaternalSurname string `json:"maternal_surname"`
}

type registerResponse struct {
	AccountID string `json:"account_id"`
	ProfileID string `json:"profile_id"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Register(r.Context(), service.RegisterParams{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		PaternalSurname: req.PaternalSurname,
		MaternalSurname: req.MaternalSurname,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.serverError(w, r, err, "register")
		return
	}
	metrics.Registrations.Inc()
	h.logEvent(r.Context(), res.AccountID, "register", "account", res.Email)
	writeJSON(w, http.StatusCreated, registerResponse{
		AccountID: res.AccountID,
		ProfileID: res.ProfileID,
		CompanyID: res.CompanyID,
		Email:     res.Email,
	})
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	email, err := h.svc.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerificationToken):
			writeError(w, http.StatusBadRequest, "invalid verification token")
		case errors.Is(err, service.ErrVerificationTokenExpired):
			writeError(w, http.StatusBadRequest, "verification token expired")
		default:
			h.serverError(w, r, err, "verify email")
		}
		return
	}
	h.logEvent(r.Context(), "", "verify_email", "account", email)
	writeJSON(w, http.StatusOK, map[string]any{"email": email, "verified": true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	AccountID    string `json:"account_id"`
	CompanyID    string `json:"company_id,omitempty"`
	Role         int16  `json:"role"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	client := service.ClientInfo{
		UserAgent: middleware.GetUserAgent(r.Context()),
		IP:        middleware.GetClientIP(r.Context()),
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password, client)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeInvalid).Inc()
			h.logEvent(r.Context(), "", "login_failure", "session", req.Email)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrEmailNotVerified):
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeUnverified).Inc()
			writeError(w, http.StatusForbidden, "email not verified")
		default:
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			h.serverError(w, r, err, "login")
		}
		return
	}
	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.logEvent(r.Context(), res.AccountID, "login_success", "session", "")
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "bearer",
		AccountID:    res.AccountID,
		CompanyID:    res.CompanyID,
		Role:         int16(res.Role),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	access, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			metrics.RefreshAttempts.WithLabelValues(metrics.OutcomeInvalid).Inc()
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrRefreshTokenRevoked):
			metrics.RefreshAttempts.WithLabelValues(metrics.OutcomeRevoked).Inc()
			writeError(w, http.StatusUnauthorized, "refresh token revoked")
		case errors.Is(err, service.ErrRefreshTokenExpired):
			metrics.RefreshAttempts.WithLabelValues(metrics.OutcomeExpired).Inc()
			writeError(w, http.StatusUnauthorized, "refresh token expired")
		default:
			metrics.RefreshAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			h.serverError(w, r, err, "refresh")
		}
		return
	}
	metrics.RefreshAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.logEvent(r.Context(), "", "refresh", "session", "")
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": access,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		h.serverError(w, r, err, "logout")
		return
	}
	h.logEvent(r.Context(), "", "logout", "session", "")
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the verified identity of the caller. Mounted behind RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": id.AccountID,
		"company_id": id.CompanyID,
		"role":       id.Role,
	})
}

func (h *AuthHandler) serverError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.log.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("auth handler error")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *AuthHandler) logEvent(ctx context.Context, accountID, action, resource, metadata string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(ctx, accountID, action, resource, metadata)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
