package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	accountdomain "contaplus/backend/internal/account/domain"
	"contaplus/backend/internal/audit"
	"contaplus/backend/internal/company/domain"
	"contaplus/backend/internal/rut"
	"contaplus/backend/internal/server/middleware"
)

// Repository is the company persistence surface the handler depends on.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	Update(ctx context.Context, c *domain.Company) error
}

// CompanyHandler serves the company registry routes. All routes require auth;
// a caller only ever sees the company its token names.
type CompanyHandler struct {
	repo  Repository
	audit audit.AuditLogger
	log   zerolog.Logger
}

// NewCompanyHandler returns a CompanyHandler. auditLogger may be nil.
func NewCompanyHandler(repo Repository, auditLogger audit.AuditLogger, log zerolog.Logger) *CompanyHandler {
	return &CompanyHandler{repo: repo, audit: auditLogger, log: log}
}

// Mount registers the company routes on r, which must already be behind RequireAuth.
func (h *CompanyHandler) Mount(r chi.Router) {
	r.Get("/company", h.get)
	r.Put("/company/{id}", h.update)
}

type companyResponse struct {
	ID                string     `json:"id"`
	RUT               string     `json:"rut,omitempty"`
	LegalName         string     `json:"legal_name,omitempty"`
	FantasyName       string     `json:"fantasy_name,omitempty"`
	BusinessName      string     `json:"business_name,omitempty"`
	LineOfBusiness    string     `json:"line_of_business,omitempty"`
	Address           string     `json:"address,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Email             string     `json:"email,omitempty"`
	SubscriptionState int16      `json:"subscription_state"`
	IncorporatedAt    *time.Time `json:"incorporated_at,omitempty"`
	ActivityStartAt   *time.Time `json:"activity_start_at,omitempty"`
}

func toResponse(c *domain.Company) companyResponse {
	resp := companyResponse{
		ID:                c.ID,
		LegalName:         c.LegalName,
		FantasyName:       c.FantasyName,
		BusinessName:      c.BusinessName,
		LineOfBusiness:    c.LineOfBusiness,
		Address:           c.Address,
		Phone:             c.Phone,
		Email:             c.Email,
		SubscriptionState: c.SubscriptionState,
		IncorporatedAt:    c.IncorporatedAt,
		ActivityStartAt:   c.ActivityStartAt,
	}
	if c.RUT != 0 {
		resp.RUT = rut.Format(c.RUT, c.RUTDv)
	}
	return resp
}

func (h *CompanyHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok || id.CompanyID == "" {
		writeError(w, http.StatusNotFound, "no company for account")
		return
	}
	company, err := h.repo.GetByID(r.Context(), id.CompanyID)
	if err != nil {
		h.serverError(w, r, err, "get company")
		return
	}
	if company == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(company))
}

type updateCompanyRequest struct {
	RUT               string     `json:"rut"`
	LegalName         string     `json:"legal_name"`
	FantasyName       string     `json:"fantasy_name"`
	BusinessName      string     `json:"business_name"`
	LineOfBusiness    string     `json:"line_of_business"`
	Address           string     `json:"address"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email"`
	SubscriptionState int16      `json:"subscription_state"`
	IncorporatedAt    *time.Time `json:"incorporated_at"`
	ActivityStartAt   *time.Time `json:"activity_start_at"`
}

var errInvalidRUT = errors.New("invalid rut")

func (h *CompanyHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	companyID := chi.URLParam(r, "id")
	if companyID != id.CompanyID {
		// Callers can only update their own company; do not reveal others exist.
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if id.Role != int16(accountdomain.RoleAdmin) {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	var req updateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	company, err := h.repo.GetByID(r.Context(), companyID)
	if err != nil {
		h.serverError(w, r, err, "load company")
		return
	}
	if company == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}

	if req.RUT != "" {
		body, dv, ok := rut.Split(req.RUT)
		if !ok {
			writeError(w, http.StatusBadRequest, errInvalidRUT.Error())
			return
		}
		company.RUT = body
		company.RUTDv = dv
	}
	company.LegalName = req.LegalName
	company.FantasyName = req.FantasyName
	company.BusinessName = req.BusinessName
	company.LineOfBusiness = req.LineOfBusiness
	company.Address = req.Address
	company.Phone = req.Phone
	company.Email = req.Email
	company.SubscriptionState = req.SubscriptionState
	company.IncorporatedAt = req.IncorporatedAt
	company.ActivityStartAt = req.ActivityStartAt

	if err := h.repo.Update(r.Context(), company); err != nil {
		h.serverError(w, r, err, "update company")
		return
	}
	if h.audit != nil {
		h.audit.LogEvent(r.Context(), id.AccountID, "update", "company", companyID)
	}
	writeJSON(w, http.StatusOK, toResponse(company))
}

func (h *CompanyHandler) serverError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.log.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("company handler error")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
