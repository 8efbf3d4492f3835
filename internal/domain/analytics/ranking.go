package analytics

import (
	"cmp"
	"slices"

	"github.com/xenking/backoffice-insights/internal/domain/order"
)

// CustomerRank is a customer's spend across the ranked orders.
type CustomerRank struct {
	Name       string
	Email      string
	OrderCount int
	TotalSpent float64
}

// SellerRank is a seller's share of the ranked orders.
type SellerRank struct {
	Name          string
	Email         string
	SalesCount    int
	TotalEarnings float64
}

// TopCustomers ranks customers, keyed by email, by total spent. Orders
// without a customer are skipped. A non-positive limit means DefaultTopN.
func TopCustomers(orders []order.Order, limit int) []CustomerRank {
	ranked := rankBy(orders, limitOr(limit, DefaultTopN),
		func(o order.Order) (string, party, bool) {
			if o.Customer == nil {
				return "", party{}, false
			}
			return o.Customer.Email, party{name: o.Customer.Name, email: o.Customer.Email}, true
		},
		func(o order.Order) float64 { return finite(o.Total) },
	)

	out := make([]CustomerRank, len(ranked))
	for i, r := range ranked {
		out[i] = CustomerRank{
			Name:       r.name,
			Email:      r.email,
			OrderCount: r.count,
			TotalSpent: r.total,
		}
	}
	return out
}

// TopSellers ranks sellers, keyed by email, by their share of each order
// total. Orders without a seller are skipped. A zero share means
// DefaultSellerShare, a non-positive limit means DefaultTopN.
func TopSellers(orders []order.Order, limit int, share float64) []SellerRank {
	if share == 0 {
		share = DefaultSellerShare
	}
	ranked := rankBy(orders, limitOr(limit, DefaultTopN),
		func(o order.Order) (string, party, bool) {
			if o.Seller == nil {
				return "", party{}, false
			}
			return o.Seller.Email, party{name: o.Seller.Name, email: o.Seller.Email}, true
		},
		func(o order.Order) float64 { return finite(o.Total) * share },
	)

	out := make([]SellerRank, len(ranked))
	for i, r := range ranked {
		out[i] = SellerRank{
			Name:          r.name,
			Email:         r.email,
			SalesCount:    r.count,
			TotalEarnings: r.total,
		}
	}
	return out
}

type party struct {
	name  string
	email string
}

type rankEntry struct {
	party
	count int
	total float64
}

// rankBy groups orders by key, counts them and sums amount per group, then
// returns the first limit groups by descending total. Groups with equal totals
// keep the order in which they were first seen. The name and email of a group
// are those of its first order.
func rankBy[K comparable](
	orders []order.Order,
	limit int,
	key func(order.Order) (K, party, bool),
	amount func(order.Order) float64,
) []rankEntry {
	index := make(map[K]int)
	entries := make([]rankEntry, 0)
	for _, o := range orders {
		k, p, ok := key(o)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(entries)
			index[k] = i
			entries = append(entries, rankEntry{party: p})
		}
		entries[i].count++
		entries[i].total += amount(o)
	}

	slices.SortStableFunc(entries, func(a, b rankEntry) int {
		return cmp.Compare(b.total, a.total)
	})
	return truncate(entries, limit)
}
