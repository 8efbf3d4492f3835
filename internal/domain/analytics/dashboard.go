package analytics

import (
	"slices"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
)

const recentOrdersLimit = 5

// DashboardSummary is the landing view of the admin dashboard.
type DashboardSummary struct {
	TotalProducts int
	TotalOrders   int
	// TotalRevenue sums the totals of paid orders.
	TotalRevenue float64
	RecentOrders []order.Order
	LowStock     LowStockReport
	Inventory    InventorySummary
	TopProducts  []ProductRank
}

// Dashboard builds the landing view from full order and product snapshots.
// RecentOrders holds the most recently created orders, newest first.
func Dashboard(orders []order.Order, products []product.Product) DashboardSummary {
	s := DashboardSummary{
		TotalProducts: len(products),
		TotalOrders:   len(orders),
		RecentOrders:  recentOrders(orders, recentOrdersLimit),
		LowStock:      LowStock(products),
		Inventory:     Inventory(products),
		TopProducts:   TopProducts(orders, DefaultTopProducts),
	}
	for _, o := range orders {
		if o.PaymentStatus == order.PaymentPaid {
			s.TotalRevenue += finite(o.Total)
		}
	}
	return s
}

// recentOrders returns up to n orders by descending creation time without
// reordering the input. Orders created at the same instant keep input order.
func recentOrders(orders []order.Order, n int) []order.Order {
	sorted := slices.Clone(orders)
	if sorted == nil {
		sorted = []order.Order{}
	}
	slices.SortStableFunc(sorted, func(a, b order.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(sorted, n)
}
