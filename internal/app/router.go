package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/wolv-invest/platform/internal/auth"
	"github.com/wolv-invest/platform/internal/authz"
	"github.com/wolv-invest/platform/internal/gate"
	"github.com/wolv-invest/platform/internal/invest"
	"github.com/wolv-invest/platform/internal/observability"
	"github.com/wolv-invest/platform/internal/platform/httpx"
	"github.com/wolv-invest/platform/internal/session"
	"github.com/wolv-invest/platform/internal/shared"
	"github.com/wolv-invest/platform/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Store         *shared.Store
	CSRFManager   *shared.CSRFManager
	SessionHub    *session.Hub
	Gate          gate.Middleware
	AuthHandler   *auth.Handler
	UsersHandler  *users.Handler
	UsersService  *users.Service
	InvestHandler *invest.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Store:       params.Store,
		CSRFManager: params.CSRFManager,
		SessionHub:  params.SessionHub,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	// Credential endpoints carry a tighter per-IP limit than the global one.
	r.Group(func(r chi.Router) {
		if params.Config != nil && params.Config.LoginRateLimit > 0 {
			r.Use(httprate.Limit(params.Config.LoginRateLimit, params.Config.LoginRateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Route("/auth", params.AuthHandler.MountRoutes)
	})

	// Plan catalog is public: prospects browse before registering.
	r.Route("/invest", params.InvestHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Gate.RequireAuthenticated)
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			p := session.PrincipalFromContext(r.Context())
			httpx.JSON(w, http.StatusOK, map[string]any{
				"name":  p.DisplayName,
				"email": p.Email,
				"home":  gate.HomeRoute(p),
			})
		})
	})

	// Admin sections gate on the route policy table; denial redirects to
	// the principal's home route.
	r.Group(func(r chi.Router) {
		r.Use(params.Gate.RequireRoute("/admin/dashboard"))
		r.Get("/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
			counts, err := params.UsersService.CountAccounts(r.Context())
			if err != nil {
				params.Logger.Error("dashboard counts", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			p := session.PrincipalFromContext(r.Context())
			httpx.JSON(w, http.StatusOK, map[string]any{
				"accounts": map[string]int64{
					"total":     counts.Total,
					"active":    counts.Active,
					"suspended": counts.Suspended,
					"admins":    counts.Admins,
				},
				"plans":  len(invest.Plans()),
				"routes": authzRoutes(p),
			})
		})
	})

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(params.Gate.RequireRoute("/admin/users"))
		params.UsersHandler.MountRoutes(r)
	})

	r.Route("/admin/investments", func(r chi.Router) {
		r.Use(params.Gate.RequireRoute("/admin/investments"))
		params.InvestHandler.MountRoutes(r)
	})

	return r
}

func authzRoutes(p *session.Principal) []string {
	if p == nil || !p.IsAdmin() {
		return nil
	}
	return authz.AccessibleRoutes(p.EffectiveAdminRole())
}
