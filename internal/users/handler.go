package users

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/gate"
	"github.com/wolv-invest/platform/internal/identity"
	"github.com/wolv-invest/platform/internal/platform/httpx"
)

// Handler exposes the account management API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    gate.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate gate.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers account management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermUsersView))
		r.Get("/", h.listAccounts)
		r.Get("/counts", h.countAccounts)
		r.Get("/{accountID}", h.getAccount)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermUsersSuspend))
		r.Post("/{accountID}/suspend", h.suspendAccount)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermUsersActivate))
		r.Post("/{accountID}/activate", h.activateAccount)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(authz.PermUsersExport))
		r.Get("/export", h.exportAccounts)
	})
}

type accountView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	AdminRole   string `json:"admin_role,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

func viewOf(a Account) accountView {
	v := accountView{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.FullName,
		Role:      string(a.BaseRole),
		AdminRole: string(a.AdminRole),
		Active:    a.Active,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.LastLoginAt != nil {
		v.LastLoginAt = a.LastLoginAt.Format(time.RFC3339)
	}
	return v
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		Query:      q.Get("q"),
		ActiveOnly: q.Get("active") == "true",
	}
	switch q.Get("role") {
	case string(identity.BaseRoleAdmin):
		filter.Role = identity.BaseRoleAdmin
	case string(identity.BaseRoleUser):
		filter.Role = identity.BaseRoleUser
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		filter.Offset = n
	}
	return filter
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]accountView, len(accounts))
	for i, a := range accounts {
		views[i] = viewOf(a)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": views})
}

func (h *Handler) countAccounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountAccounts(r.Context())
	if err != nil {
		h.logger.Error("count accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"total":     counts.Total,
		"active":    counts.Active,
		"suspended": counts.Suspended,
		"admins":    counts.Admins,
	})
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondAccountError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(*account))
}

func (h *Handler) suspendAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Suspend(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondAccountError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(*account))
}

func (h *Handler) activateAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Activate(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondAccountError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(*account))
}

func (h *Handler) exportAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ExportAccounts(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("export accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "email", "name", "role", "admin_role", "active", "created_at", "last_login_at"})
	for _, a := range accounts {
		v := viewOf(a)
		_ = cw.Write([]string{v.ID, v.Email, v.Name, v.Role, v.AdminRole, strconv.FormatBool(v.Active), v.CreatedAt, v.LastLoginAt})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write export", slog.Any("error", err))
	}
}

func (h *Handler) respondAccountError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrAccountNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "account does not exist")
		return
	}
	h.logger.Error("account operation", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
