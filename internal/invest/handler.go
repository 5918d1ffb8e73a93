package invest

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolv-invest/platform/internal/platform/httpx"
)

// Handler exposes the public plan catalog and projection API.
type Handler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger, now: time.Now}
}

// MountRoutes registers plan routes. These are public: prospective
// investors browse plans before registering.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/plans", h.listPlans)
	r.Get("/plans/{planType}", h.getPlan)
	r.Get("/plans/{planType}/projection", h.projectReturns)
}

type planView struct {
	Type             string   `json:"type"`
	Name             string   `json:"name"`
	MinAmount        float64  `json:"min_amount"`
	MaxAmount        float64  `json:"max_amount"`
	DailyROI         float64  `json:"daily_roi"`
	DurationDays     int      `json:"duration_days"`
	WithdrawalPeriod int      `json:"withdrawal_period_days"`
	Features         []string `json:"features"`
	Popular          bool     `json:"popular,omitempty"`
}

func planViewOf(p Plan) planView {
	return planView{
		Type:             string(p.Type),
		Name:             p.Name,
		MinAmount:        p.MinAmount,
		MaxAmount:        p.MaxAmount,
		DailyROI:         p.DailyROI,
		DurationDays:     p.DurationDays,
		WithdrawalPeriod: p.WithdrawalPeriod,
		Features:         p.Features,
		Popular:          p.Popular,
	}
}

type projectionView struct {
	Plan           string  `json:"plan"`
	Amount         float64 `json:"amount"`
	DailyReturn    float64 `json:"daily_return"`
	TotalEarnings  float64 `json:"total_earnings"`
	TotalPayout    float64 `json:"total_payout"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	WithdrawableAt string  `json:"withdrawable_at"`
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans := Plans()
	views := make([]planView, len(plans))
	for i, p := range plans {
		views[i] = planViewOf(p)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plans": views})
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := PlanByType(PlanType(chi.URLParam(r, "planType")))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such plan")
		return
	}
	httpx.JSON(w, http.StatusOK, planViewOf(plan))
}

func (h *Handler) projectReturns(w http.ResponseWriter, r *http.Request) {
	plan, err := PlanByType(PlanType(chi.URLParam(r, "planType")))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such plan")
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", "amount must be a number")
		return
	}
	projection, err := Project(plan, amount, h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount",
			"amount must be between plan minimum and maximum")
		return
	}
	httpx.JSON(w, http.StatusOK, projectionView{
		Plan:           string(projection.Plan),
		Amount:         projection.Amount,
		DailyReturn:    projection.DailyReturn,
		TotalEarnings:  projection.TotalEarnings,
		TotalPayout:    projection.TotalPayout,
		StartDate:      projection.StartDate.Format("2006-01-02"),
		EndDate:        projection.EndDate.Format("2006-01-02"),
		WithdrawableAt: projection.WithdrawableAt.Format("2006-01-02"),
	})
}
