package handler

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/backoffice-insights/internal/domain/analytics"
	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/wire"
)

const dateLayout = "2006-01-02"

func encodeTime(e *jx.Encoder, t time.Time) {
	if t.IsZero() {
		e.Null()
		return
	}
	e.Str(t.Format(time.RFC3339))
}

func encodeArr[T any](e *jx.Encoder, items []T, encode func(e *jx.Encoder, v T)) {
	e.ArrStart()
	for _, v := range items {
		encode(e, v)
	}
	e.ArrEnd()
}

func encodeSeller(e *jx.Encoder, s order.Seller) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(s.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
		e.Field("email", func(e *jx.Encoder) { e.Str(s.Email) })
		e.Field("role", func(e *jx.Encoder) { e.Str(s.Role) })
	})
}

func encodeEarnings(e *jx.Encoder, r analytics.EarningsReport) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("totalCommissions", func(e *jx.Encoder) { e.Float64(r.TotalCommissions) })
		e.Field("monthlyCommissions", func(e *jx.Encoder) { e.Float64(r.MonthlyCommissions) })
		e.Field("weeklyCommissions", func(e *jx.Encoder) { e.Float64(r.WeeklyCommissions) })
		e.Field("processedOrders", func(e *jx.Encoder) { e.Int(r.ProcessedOrders) })
		e.Field("topSellingAdmins", func(e *jx.Encoder) {
			encodeArr(e, r.TopSellingAdmins, func(e *jx.Encoder, s analytics.SellerCommission) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("seller", func(e *jx.Encoder) { encodeSeller(e, s.Seller) })
					e.Field("totalSales", func(e *jx.Encoder) { e.Float64(s.TotalSales) })
					e.Field("commission", func(e *jx.Encoder) { e.Float64(s.Commission) })
					e.Field("ordersCount", func(e *jx.Encoder) { e.Int(s.OrdersCount) })
				})
			})
		})
		e.Field("recentCommissions", func(e *jx.Encoder) {
			encodeArr(e, r.RecentCommissions, func(e *jx.Encoder, c analytics.Commission) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("orderId", func(e *jx.Encoder) { e.Int64(c.OrderID) })
					e.Field("orderNumber", func(e *jx.Encoder) { e.Str(c.OrderNumber) })
					e.Field("sellerName", func(e *jx.Encoder) { e.Str(c.SellerName) })
					e.Field("orderTotal", func(e *jx.Encoder) { e.Float64(c.OrderTotal) })
					e.Field("commission", func(e *jx.Encoder) { e.Float64(c.Commission) })
					e.Field("processedAt", func(e *jx.Encoder) { encodeTime(e, c.ProcessedAt) })
				})
			})
		})
		e.Field("monthlyTrend", func(e *jx.Encoder) {
			encodeArr(e, r.MonthlyTrend, func(e *jx.Encoder, m analytics.MonthlyCommission) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("month", func(e *jx.Encoder) { e.Str(m.Month) })
					e.Field("start", func(e *jx.Encoder) { encodeTime(e, m.Start) })
					e.Field("commissions", func(e *jx.Encoder) { e.Float64(m.Commissions) })
					e.Field("orders", func(e *jx.Encoder) { e.Int(m.Orders) })
				})
			})
		})
	})
}

func encodeOrderStats(e *jx.Encoder, s analytics.OrderStatistics) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("total", func(e *jx.Encoder) { e.Int(s.Total) })
		e.Field("pending", func(e *jx.Encoder) { e.Int(s.Pending) })
		e.Field("completed", func(e *jx.Encoder) { e.Int(s.Completed) })
		e.Field("canceled", func(e *jx.Encoder) { e.Int(s.Canceled) })
		e.Field("totalValue", func(e *jx.Encoder) { e.Float64(s.TotalValue) })
		e.Field("avgOrderValue", func(e *jx.Encoder) { e.Float64(s.AvgOrderValue) })
		e.Field("todayOrders", func(e *jx.Encoder) { e.Int(s.TodayOrders) })
		e.Field("thisWeekOrders", func(e *jx.Encoder) { e.Int(s.ThisWeekOrders) })
		e.Field("lastWeekOrders", func(e *jx.Encoder) { e.Int(s.LastWeekOrders) })
		e.Field("weekGrowth", func(e *jx.Encoder) { e.Float64(s.WeekGrowth) })
	})
}

func encodeOrderOverview(e *jx.Encoder, o analytics.OrderOverview) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("stats", func(e *jx.Encoder) { encodeOrderStats(e, o.Stats) })
		e.Field("topCustomers", func(e *jx.Encoder) {
			encodeArr(e, o.TopCustomers, func(e *jx.Encoder, c analytics.CustomerRank) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
					e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
					e.Field("orderCount", func(e *jx.Encoder) { e.Int(c.OrderCount) })
					e.Field("totalSpent", func(e *jx.Encoder) { e.Float64(c.TotalSpent) })
				})
			})
		})
		e.Field("topSellers", func(e *jx.Encoder) {
			encodeArr(e, o.TopSellers, func(e *jx.Encoder, s analytics.SellerRank) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
					e.Field("email", func(e *jx.Encoder) { e.Str(s.Email) })
					e.Field("salesCount", func(e *jx.Encoder) { e.Int(s.SalesCount) })
					e.Field("totalEarnings", func(e *jx.Encoder) { e.Float64(s.TotalEarnings) })
				})
			})
		})
	})
}

func encodeLowStock(e *jx.Encoder, r analytics.LowStockReport) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			encodeArr(e, r.Items, func(e *jx.Encoder, it analytics.LowStockItem) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("product", func(e *jx.Encoder) { wire.EncodeProduct(e, it.Product) })
					e.Field("urgency", func(e *jx.Encoder) { e.Str(string(it.Urgency)) })
					e.Field("restockSuggestion", func(e *jx.Encoder) { e.Int(it.RestockSuggestion) })
				})
			})
		})
		e.Field("criticalCount", func(e *jx.Encoder) { e.Int(r.CriticalCount) })
		e.Field("warningCount", func(e *jx.Encoder) { e.Int(r.WarningCount) })
		e.Field("lowCount", func(e *jx.Encoder) { e.Int(r.LowCount) })
		e.Field("totalSuggestedUnits", func(e *jx.Encoder) { e.Int(r.TotalSuggestedUnits) })
		e.Field("estimatedInvestment", func(e *jx.Encoder) { e.Float64(r.EstimatedInvestment) })
	})
}

func encodeInventory(e *jx.Encoder, s analytics.InventorySummary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("totalProducts", func(e *jx.Encoder) { e.Int(s.TotalProducts) })
		e.Field("totalStock", func(e *jx.Encoder) { e.Int(s.TotalStock) })
		e.Field("totalValue", func(e *jx.Encoder) { e.Float64(s.TotalValue) })
		e.Field("outOfStockCount", func(e *jx.Encoder) { e.Int(s.OutOfStockCount) })
		e.Field("lowStockCount", func(e *jx.Encoder) { e.Int(s.LowStockCount) })
		e.Field("categoryStats", func(e *jx.Encoder) {
			encodeArr(e, s.CategoryStats, func(e *jx.Encoder, c analytics.CategoryStats) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("category", func(e *jx.Encoder) { e.Str(c.Category) })
					e.Field("totalProducts", func(e *jx.Encoder) { e.Int(c.TotalProducts) })
					e.Field("totalStock", func(e *jx.Encoder) { e.Int(c.TotalStock) })
					e.Field("totalValue", func(e *jx.Encoder) { e.Float64(c.TotalValue) })
				})
			})
		})
	})
}

func encodeSalesTrend(e *jx.Encoder, s analytics.SalesTrend) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("weekly", func(e *jx.Encoder) {
			encodeArr(e, s.Weekly, func(e *jx.Encoder, b analytics.RevenueBucket) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("label", func(e *jx.Encoder) { e.Str(b.Label) })
					e.Field("start", func(e *jx.Encoder) { e.Str(b.Start.Format(dateLayout)) })
					e.Field("end", func(e *jx.Encoder) { e.Str(b.End.Format(dateLayout)) })
					e.Field("revenue", func(e *jx.Encoder) { e.Float64(b.Revenue) })
					e.Field("orders", func(e *jx.Encoder) { e.Int(b.Orders) })
				})
			})
		})
		e.Field("daily", func(e *jx.Encoder) {
			encodeArr(e, s.Daily, func(e *jx.Encoder, d analytics.DailySale) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("date", func(e *jx.Encoder) { e.Str(d.Date.Format(dateLayout)) })
					e.Field("orders", func(e *jx.Encoder) { e.Int(d.Orders) })
					e.Field("revenue", func(e *jx.Encoder) { e.Float64(d.Revenue) })
				})
			})
		})
	})
}

func encodeTopProducts(e *jx.Encoder, ranks []analytics.ProductRank) {
	encodeArr(e, ranks, func(e *jx.Encoder, p analytics.ProductRank) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("productId", func(e *jx.Encoder) { e.Int64(p.ProductID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
			e.Field("totalSold", func(e *jx.Encoder) { e.Int(p.TotalSold) })
			e.Field("revenue", func(e *jx.Encoder) { e.Float64(p.Revenue) })
			e.Field("ordersCount", func(e *jx.Encoder) { e.Int(p.OrdersCount) })
		})
	})
}

func encodeDashboard(e *jx.Encoder, d analytics.DashboardSummary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("totalProducts", func(e *jx.Encoder) { e.Int(d.TotalProducts) })
		e.Field("totalOrders", func(e *jx.Encoder) { e.Int(d.TotalOrders) })
		e.Field("totalRevenue", func(e *jx.Encoder) { e.Float64(d.TotalRevenue) })
		e.Field("recentOrders", func(e *jx.Encoder) { encodeArr(e, d.RecentOrders, wire.EncodeOrder) })
		e.Field("lowStock", func(e *jx.Encoder) { encodeLowStock(e, d.LowStock) })
		e.Field("inventory", func(e *jx.Encoder) { encodeInventory(e, d.Inventory) })
		e.Field("topProducts", func(e *jx.Encoder) { encodeTopProducts(e, d.TopProducts) })
	})
}
