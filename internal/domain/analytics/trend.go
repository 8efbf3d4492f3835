package analytics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xenking/backoffice-insights/internal/domain/order"
)

const (
	// DefaultTrendWeeks is the number of weekly revenue buckets.
	DefaultTrendWeeks = 6
	// DefaultTrendDays is the number of daily sales buckets.
	DefaultTrendDays = 7
)

// Short month names as rendered by the dashboard (es-ES).
var shortMonths = [12]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sept", "oct", "nov", "dic",
}

func shortMonth(m time.Month) string {
	return shortMonths[m-1]
}

// monthLabel renders t as "oct 26".
func monthLabel(t time.Time) string {
	return fmt.Sprintf("%s %02d", shortMonth(t.Month()), t.Year()%100)
}

// weekLabel renders t as "Sem 15 oct".
func weekLabel(t time.Time) string {
	return "Sem " + strconv.Itoa(t.Day()) + " " + shortMonth(t.Month())
}

// RevenueBucket is the revenue of the orders created in [Start, End], both
// calendar days inclusive.
type RevenueBucket struct {
	Label   string
	Start   time.Time
	End     time.Time
	Revenue float64
	Orders  int
}

// DailySale is the revenue of the orders created on a calendar day.
type DailySale struct {
	Date    time.Time
	Orders  int
	Revenue float64
}

// WeeklyRevenue splits orders into weeks buckets of seven calendar days,
// oldest first. The newest bucket starts today; each older one starts seven
// days before the next. A non-positive weeks means DefaultTrendWeeks.
func WeeklyRevenue(orders []order.Order, now time.Time, weeks int) []RevenueBucket {
	weeks = limitOr(weeks, DefaultTrendWeeks)
	loc := now.Location()
	today := startOfDay(now, loc)

	buckets := make([]RevenueBucket, weeks)
	for i := range buckets {
		start := today.AddDate(0, 0, -7*(weeks-1-i))
		buckets[i] = RevenueBucket{
			Label: weekLabel(start),
			Start: start,
			End:   start.AddDate(0, 0, 6),
		}
	}

	for _, o := range orders {
		if o.CreatedAt.IsZero() {
			continue
		}
		for i := range buckets {
			if inRange(o.CreatedAt, buckets[i].Start, buckets[i].End.AddDate(0, 0, 1)) {
				buckets[i].Revenue += finite(o.Total)
				buckets[i].Orders++
				break
			}
		}
	}
	return buckets
}

// DailySales returns one entry per calendar day for the days ending today,
// oldest first. A non-positive days means DefaultTrendDays.
func DailySales(orders []order.Order, now time.Time, days int) []DailySale {
	days = limitOr(days, DefaultTrendDays)
	loc := now.Location()
	first := startOfDay(now, loc).AddDate(0, 0, -(days - 1))

	sales := make([]DailySale, days)
	for i := range sales {
		sales[i].Date = first.AddDate(0, 0, i)
	}

	for _, o := range orders {
		if o.CreatedAt.IsZero() {
			continue
		}
		day := startOfDay(o.CreatedAt, loc)
		for i := range sales {
			if sales[i].Date.Equal(day) {
				sales[i].Orders++
				sales[i].Revenue += finite(o.Total)
				break
			}
		}
	}
	return sales
}
