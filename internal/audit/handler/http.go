package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	auditrepo "contaplus/backend/internal/audit/repository"
	"contaplus/backend/internal/server/middleware"
)

// AuditHandler serves the caller's own audit trail. Mounted behind auth.
type AuditHandler struct {
	repo auditrepo.Repository
	log  zerolog.Logger
}

// NewAuditHandler returns an AuditHandler backed by repo.
func NewAuditHandler(repo auditrepo.Repository, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// Mount registers the audit routes on r, which must already be behind RequireAuth.
func (h *AuditHandler) Mount(r chi.Router) {
	r.Get("/audit/logs", h.list)
}

type auditLogResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AuditHandler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
		return
	}

	limit := queryInt32(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt32(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.repo.ListByAccount(r.Context(), id.AccountID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("audit handler: list")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	out := make([]auditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditLogResponse{
			ID:        e.ID,
			Action:    e.Action,
			Resource:  e.Resource,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"logs": out})
}

func queryInt32(r *http.Request, key string, def int32) int32 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return def
	}
	return int32(n)
}
