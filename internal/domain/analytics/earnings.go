package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/xenking/backoffice-insights/internal/domain/order"
)

const (
	recentCommissionsLimit = 10
	trendMonths            = 6

	commissionMonthWindow = 30 * 24 * time.Hour
	commissionWeekWindow  = 7 * 24 * time.Hour
)

// EarningsOptions selects the orders that earn commission and the rate applied
// to them. Empty filters match every order.
type EarningsOptions struct {
	// Rate is the commission rate. Zero means DefaultCommissionRate.
	Rate float64

	PaymentStatus order.PaymentStatus
	PaymentMethod order.PaymentMethod
	// SellerRole keeps only orders whose seller has this role. Orders without
	// a seller never match a non-empty role.
	SellerRole string
}

// DefaultEarningsOptions returns the filters of the earnings screen: paid,
// internal-transfer orders processed by an admin.
func DefaultEarningsOptions() EarningsOptions {
	return EarningsOptions{
		Rate:          DefaultCommissionRate,
		PaymentStatus: order.PaymentPaid,
		PaymentMethod: order.MethodInternalTransfer,
		SellerRole:    order.RoleAdmin,
	}
}

func (opts EarningsOptions) rate() float64 {
	if opts.Rate == 0 {
		return DefaultCommissionRate
	}
	return opts.Rate
}

func (opts EarningsOptions) match(o order.Order) bool {
	if opts.SellerRole != "" && (o.Seller == nil || o.Seller.Role != opts.SellerRole) {
		return false
	}
	if opts.PaymentStatus != "" && o.PaymentStatus != opts.PaymentStatus {
		return false
	}
	if opts.PaymentMethod != "" && o.PaymentMethod != opts.PaymentMethod {
		return false
	}
	return true
}

// EarningsReport is the commission view of a set of orders.
type EarningsReport struct {
	TotalCommissions   float64
	MonthlyCommissions float64
	WeeklyCommissions  float64
	ProcessedOrders    int
	TopSellingAdmins   []SellerCommission
	RecentCommissions  []Commission
	MonthlyTrend       []MonthlyCommission
}

// SellerCommission aggregates the commissioned sales of one seller.
type SellerCommission struct {
	Seller      order.Seller
	TotalSales  float64
	Commission  float64
	OrdersCount int
}

// Commission is the commission earned on a single order.
type Commission struct {
	OrderID     int64
	OrderNumber string
	SellerName  string
	OrderTotal  float64
	Commission  float64
	ProcessedAt time.Time
}

// MonthlyCommission is one calendar month of the commission trend.
type MonthlyCommission struct {
	Month       string
	Start       time.Time
	Commissions float64
	Orders      int
}

// Earnings computes the commission view of orders as of now.
//
// Monthly and weekly sums use rolling 30 and 7 day windows. The trend covers
// the six calendar months ending with the month of now.
func Earnings(orders []order.Order, now time.Time, opts EarningsOptions) EarningsReport {
	r := opts.rate()
	monthAgo := now.Add(-commissionMonthWindow)
	weekAgo := now.Add(-commissionWeekWindow)

	report := EarningsReport{
		TopSellingAdmins:  []SellerCommission{},
		RecentCommissions: []Commission{},
		MonthlyTrend:      newMonthlyTrend(now),
	}

	var (
		filtered = make([]order.Order, 0, len(orders))
		sellers  = make(map[sellerKey]int)
		ranking  []SellerCommission
	)
	for _, o := range orders {
		if !opts.match(o) {
			continue
		}
		filtered = append(filtered, o)

		total := finite(o.Total)
		commission := total * r

		report.TotalCommissions += commission
		if !o.CreatedAt.Before(monthAgo) {
			report.MonthlyCommissions += commission
		}
		if !o.CreatedAt.Before(weekAgo) {
			report.WeeklyCommissions += commission
		}

		if o.Seller != nil {
			key := keyOf(o.Seller)
			i, ok := sellers[key]
			if !ok {
				i = len(ranking)
				sellers[key] = i
				ranking = append(ranking, SellerCommission{Seller: *o.Seller})
			}
			ranking[i].TotalSales += total
			ranking[i].Commission += commission
			ranking[i].OrdersCount++
		}

		if i := monthIndex(report.MonthlyTrend[0].Start, o.CreatedAt); i >= 0 && i < len(report.MonthlyTrend) {
			report.MonthlyTrend[i].Commissions += commission
			report.MonthlyTrend[i].Orders++
		}
	}
	report.ProcessedOrders = len(filtered)

	if len(ranking) > 0 {
		slices.SortStableFunc(ranking, func(a, b SellerCommission) int {
			return cmp.Compare(b.Commission, a.Commission)
		})
		report.TopSellingAdmins = truncate(ranking, DefaultTopN)
	}

	// Last orders of the input, most recently processed first.
	recent := filtered[max(0, len(filtered)-recentCommissionsLimit):]
	for i := len(recent) - 1; i >= 0; i-- {
		o := recent[i]
		sellerName := "N/A"
		if o.Seller != nil && o.Seller.Name != "" {
			sellerName = o.Seller.Name
		}
		total := finite(o.Total)
		report.RecentCommissions = append(report.RecentCommissions, Commission{
			OrderID:     o.ID,
			OrderNumber: o.Number(),
			SellerName:  sellerName,
			OrderTotal:  total,
			Commission:  total * r,
			ProcessedAt: o.ProcessedAt(),
		})
	}

	return report
}

// sellerKey groups commissions by seller id. Sellers known only by name or
// email, as when the relation arrives as a bare name, group by those instead.
type sellerKey struct {
	id    int64
	name  string
	email string
}

func keyOf(s *order.Seller) sellerKey {
	if s.ID != 0 {
		return sellerKey{id: s.ID}
	}
	return sellerKey{name: s.Name, email: s.Email}
}

// newMonthlyTrend returns empty buckets for the six calendar months ending
// with the month of now, oldest first.
func newMonthlyTrend(now time.Time) []MonthlyCommission {
	loc := now.Location()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	trend := make([]MonthlyCommission, trendMonths)
	for i := range trend {
		start := current.AddDate(0, i-(trendMonths-1), 0)
		trend[i] = MonthlyCommission{
			Month: monthLabel(start),
			Start: start,
		}
	}
	return trend
}

// monthIndex returns how many calendar months t is after first, in the
// location of first. Negative means t is earlier.
func monthIndex(first, t time.Time) int {
	t = t.In(first.Location())
	return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
}
