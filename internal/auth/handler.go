// Package auth wires the HTTP endpoints for authentication flows.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/identity"
	"github.com/wolv-invest/platform/internal/observability"
	"github.com/wolv-invest/platform/internal/platform/httpx"
	"github.com/wolv-invest/platform/internal/session"
	"github.com/wolv-invest/platform/internal/shared"
)

// Handler exposes login, registration, logout and session introspection.
type Handler struct {
	logger    *slog.Logger
	hub       *session.Hub
	store     *shared.Store
	csrf      *shared.CSRFManager
	events    *identity.EventHub
	metrics   *observability.Metrics
	validator *validator.Validate
	// onRegistered runs after a successful registration, e.g. to enqueue
	// the welcome email. Best effort.
	onRegistered func(ctx context.Context, email, name string)
}

// HandlerConfig collects Handler dependencies.
type HandlerConfig struct {
	Logger       *slog.Logger
	Hub          *session.Hub
	Store        *shared.Store
	CSRF         *shared.CSRFManager
	Events       *identity.EventHub
	Metrics      *observability.Metrics
	OnRegistered func(ctx context.Context, email, name string)
}

// NewHandler constructs a Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		logger:       cfg.Logger,
		hub:          cfg.Hub,
		store:        cfg.Store,
		csrf:         cfg.CSRF,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
		validator:    validator.New(),
		onRegistered: cfg.OnRegistered,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type principalView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AdminRole   string `json:"admin_role,omitempty"`
	Active      bool   `json:"active"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

type sessionView struct {
	Authenticated bool           `json:"authenticated"`
	State         string         `json:"state"`
	Principal     *principalView `json:"principal,omitempty"`
	Routes        []string       `json:"routes,omitempty"`
	CSRFToken     string         `json:"csrf_token,omitempty"`
	Warning       string         `json:"warning,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	sess := shared.WebSessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	manager := h.hub.Attach(r.Context(), sess.ID, sess.Subject())

	if err := manager.Login(r.Context(), req.Email, req.Password); err != nil {
		h.metrics.RecordLogin(loginOutcome(err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordLogin("success")

	subject := manager.Subject()
	sess.Bind(subject)
	if err := h.events.PublishSignedIn(r.Context(), subject); err != nil {
		h.logger.Warn("publish signed-in", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, h.sessionView(manager, sess))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name, email and password are required")
		return
	}

	sess := shared.WebSessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	manager := h.hub.Attach(r.Context(), sess.ID, sess.Subject())

	result, err := manager.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// An unconfirmed registration stays pending until the backend emits
	// the post-confirmation sign-in; publishing (or persisting the
	// subject) here would authenticate the account early.
	if subject := manager.Subject(); subject != "" && !result.PendingConfirmation {
		sess.Bind(subject)
		if err := h.events.PublishSignedIn(r.Context(), subject); err != nil {
			h.logger.Warn("publish signed-in", slog.Any("error", err))
		}
	}
	if h.onRegistered != nil {
		h.onRegistered(r.Context(), req.Email, req.Name)
	}

	view := h.sessionView(manager, sess)
	view.Warning = result.Warning
	status := http.StatusCreated
	if result.PendingConfirmation {
		status = http.StatusAccepted
	}
	httpx.JSON(w, status, view)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.WebSessionFromContext(r.Context())
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// Clear the principal before the cookie teardown so no privileged
	// state stays visible.
	if manager := h.hub.Lookup(sess.ID); manager != nil {
		subject := manager.Subject()
		manager.Logout(r.Context())
		if subject != "" {
			if err := h.events.PublishSignedOut(r.Context(), subject); err != nil {
				h.logger.Warn("publish signed-out", slog.Any("error", err))
			}
		}
	}
	h.hub.Detach(sess.ID)
	sess.Unbind()
	h.store.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.WebSessionFromContext(r.Context())
	if sess == nil {
		httpx.JSON(w, http.StatusOK, sessionView{State: session.StateUnauthenticated.String()})
		return
	}
	manager := h.hub.Attach(r.Context(), sess.ID, sess.Subject())
	httpx.JSON(w, http.StatusOK, h.sessionView(manager, sess))
}

func (h *Handler) sessionView(manager *session.Manager, sess *shared.WebSession) sessionView {
	snap := manager.Snapshot()
	view := sessionView{
		Authenticated: snap.State == session.StateAuthenticated,
		State:         snap.State.String(),
	}
	if token, err := h.csrf.EnsureToken(sess); err == nil {
		view.CSRFToken = token
	}
	p := snap.Principal
	if p == nil || snap.State != session.StateAuthenticated {
		return view
	}
	view.Principal = &principalView{
		ID:        p.ID,
		Name:      p.DisplayName,
		Email:     p.Email,
		Role:      string(p.BaseRole),
		AdminRole: string(p.AdminRole),
		Active:    p.Active,
	}
	if p.LastLoginAt != nil {
		view.Principal.LastLoginAt = p.LastLoginAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if p.IsAdmin() {
		view.Routes = authz.AccessibleRoutes(p.EffectiveAdminRole())
	}
	return view
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrProfileMissing):
		return "invalid"
	case errors.Is(err, identity.ErrAccountDeactivated):
		return "deactivated"
	default:
		return "error"
	}
}
