package analytics

import (
	"time"

	"github.com/xenking/backoffice-insights/internal/domain/order"
)

// OrderStatistics summarizes an order list for the orders screen.
type OrderStatistics struct {
	Total     int
	Pending   int
	Completed int
	Canceled  int

	TotalValue    float64
	AvgOrderValue float64

	TodayOrders    int
	ThisWeekOrders int
	LastWeekOrders int
	// WeekGrowth is the percentage change from last week to this week. It is
	// exactly 100 whenever last week had no orders.
	WeekGrowth float64
}

// OrderStats computes order counters and growth as of now.
//
// "Today" is the calendar day of now. This week is [now-7d, now) and last
// week is [now-14d, now-7d), both measured in calendar days.
func OrderStats(orders []order.Order, now time.Time) OrderStatistics {
	loc := now.Location()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var s OrderStatistics
	for _, o := range orders {
		s.Total++
		switch o.PaymentStatus {
		case order.PaymentPending:
			s.Pending++
		case order.PaymentPaid:
			s.Completed++
		}
		if o.Status == order.StatusCanceled {
			s.Canceled++
		}
		s.TotalValue += finite(o.Total)

		if o.CreatedAt.IsZero() {
			continue
		}
		if sameDay(o.CreatedAt, now, loc) {
			s.TodayOrders++
		}
		switch {
		case inRange(o.CreatedAt, weekAgo, now):
			s.ThisWeekOrders++
		case inRange(o.CreatedAt, twoWeeksAgo, weekAgo):
			s.LastWeekOrders++
		}
	}

	if s.Total > 0 {
		s.AvgOrderValue = s.TotalValue / float64(s.Total)
	}
	s.WeekGrowth = weekGrowth(s.ThisWeekOrders, s.LastWeekOrders)

	return s
}

func weekGrowth(thisWeek, lastWeek int) float64 {
	if lastWeek == 0 {
		return 100
	}
	return float64(thisWeek-lastWeek) / float64(lastWeek) * 100
}
