package analytics

import (
	"cmp"
	"slices"

	"github.com/xenking/backoffice-insights/internal/domain/order"
)

// ProductRank is how much of a product the ranked orders sold.
type ProductRank struct {
	ProductID   int64
	Name        string
	TotalSold   int
	Revenue     float64
	OrdersCount int
}

// TopProducts ranks products by units sold across all order items. Revenue
// is quantity times the item price. OrdersCount counts distinct orders. A
// non-positive limit means DefaultTopProducts.
func TopProducts(orders []order.Order, limit int) []ProductRank {
	var (
		index   = make(map[int64]int)
		lastIn  = make(map[int64]int)
		entries = make([]ProductRank, 0)
	)
	for n, o := range orders {
		for _, item := range o.Items {
			i, ok := index[item.ProductID]
			if !ok {
				i = len(entries)
				index[item.ProductID] = i
				entries = append(entries, ProductRank{ProductID: item.ProductID})
			}
			e := &entries[i]
			if e.Name == "" && item.Product != nil {
				e.Name = item.Product.Name
			}
			e.TotalSold += item.Quantity
			e.Revenue += float64(item.Quantity) * finite(item.Price)

			// Orders are visited once, so n+1 marks "counted for order n".
			if lastIn[item.ProductID] != n+1 {
				lastIn[item.ProductID] = n + 1
				e.OrdersCount++
			}
		}
	}

	slices.SortStableFunc(entries, func(a, b ProductRank) int {
		return cmp.Compare(b.TotalSold, a.TotalSold)
	})
	return truncate(entries, limitOr(limit, DefaultTopProducts))
}
