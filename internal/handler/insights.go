package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/backoffice-insights/internal/domain/analytics"
	"github.com/xenking/backoffice-insights/internal/domain/order"
)

const (
	maxTopProducts = 100
	maxTrendWeeks  = 52
	maxTrendDays   = 90
)

// Earnings serves the commission view. Filters default to the earnings
// screen's; all=true drops every filter.
func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	all, err := boolParam(q, "all")
	if err != nil {
		fail(w, r, err)
		return
	}

	def := analytics.DefaultEarningsOptions()
	var opts analytics.EarningsOptions
	if !all {
		opts = analytics.EarningsOptions{
			PaymentStatus: order.PaymentStatus(stringParam(q, "paymentStatus", string(def.PaymentStatus))),
			PaymentMethod: order.PaymentMethod(stringParam(q, "paymentMethod", string(def.PaymentMethod))),
			SellerRole:    stringParam(q, "role", def.SellerRole),
		}
	}

	report, err := h.insights.Earnings(r.Context(), opts)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeEarnings(e, report) })
}

// Orders serves order counters and the customer and seller rankings.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	overview, err := h.insights.OrderOverview(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrderOverview(e, overview) })
}

// LowStock serves restock suggestions.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	report, err := h.insights.LowStock(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeLowStock(e, report) })
}

// Inventory serves the stock valuation.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	summary, err := h.insights.Inventory(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeInventory(e, summary) })
}

// Sales serves weekly revenue and daily sales.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weeks, err := intParam(q, "weeks", analytics.DefaultTrendWeeks, 1, maxTrendWeeks)
	if err != nil {
		fail(w, r, err)
		return
	}
	days, err := intParam(q, "days", analytics.DefaultTrendDays, 1, maxTrendDays)
	if err != nil {
		fail(w, r, err)
		return
	}

	trend, err := h.insights.SalesTrend(r.Context(), weeks, days)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSalesTrend(e, trend) })
}

// TopProducts serves the best selling products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", analytics.DefaultTopProducts, 1, maxTopProducts)
	if err != nil {
		fail(w, r, err)
		return
	}

	ranks, err := h.insights.TopProducts(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTopProducts(e, ranks) })
}

// Dashboard serves the landing view.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.insights.Dashboard(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeDashboard(e, summary) })
}
