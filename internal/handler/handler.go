// Package handler serves the insight views over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/backoffice-insights/internal/domain/analytics"
)

// Insights is the set of views served by the Handler. It is implemented by
// *analytics.Service.
type Insights interface {
	Earnings(ctx context.Context, opts analytics.EarningsOptions) (analytics.EarningsReport, error)
	OrderOverview(ctx context.Context) (analytics.OrderOverview, error)
	LowStock(ctx context.Context) (analytics.LowStockReport, error)
	Inventory(ctx context.Context) (analytics.InventorySummary, error)
	SalesTrend(ctx context.Context, weeks, days int) (analytics.SalesTrend, error)
	TopProducts(ctx context.Context, limit int) ([]analytics.ProductRank, error)
	Dashboard(ctx context.Context) (analytics.DashboardSummary, error)
}

var _ Insights = (*analytics.Service)(nil)

// Handler maps HTTP requests to insight views.
type Handler struct {
	insights Insights
}

// NewHandler constructs a Handler serving the given views.
func NewHandler(insights Insights) *Handler {
	return &Handler{insights: insights}
}

// Routes returns the router of the insights API, mounted under /api/insights.
// Routes are wrapped with the given middlewares, typically the API key guard.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/api/insights", func(r chi.Router) {
		r.Use(middlewares...)
		r.NotFound(notFound)
		r.MethodNotAllowed(methodNotAllowed)
		r.Get("/earnings", h.Earnings)
		r.Get("/orders", h.Orders)
		r.Get("/low-stock", h.LowStock)
		r.Get("/inventory", h.Inventory)
		r.Get("/sales", h.Sales)
		r.Get("/top-products", h.TopProducts)
		r.Get("/dashboard", h.Dashboard)
	})
	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
