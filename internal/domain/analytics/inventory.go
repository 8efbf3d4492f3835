package analytics

import (
	"github.com/xenking/backoffice-insights/internal/domain/product"
)

// InventorySummary is the stock valuation of a catalog.
type InventorySummary struct {
	TotalProducts   int
	TotalStock      int
	TotalValue      float64
	OutOfStockCount int
	LowStockCount   int
	CategoryStats   []CategoryStats
}

// CategoryStats is the stock valuation of a single category. Products without
// a category are grouped under an empty Category.
type CategoryStats struct {
	Category      string
	TotalProducts int
	TotalStock    int
	TotalValue    float64
}

// Inventory values the catalog at current prices. Categories are listed in
// the order they first appear.
func Inventory(products []product.Product) InventorySummary {
	s := InventorySummary{CategoryStats: []CategoryStats{}}
	index := make(map[string]int)

	for _, p := range products {
		value := finite(p.Price) * float64(p.Stock)

		s.TotalProducts++
		s.TotalStock += p.Stock
		s.TotalValue += value
		if p.Stock <= 0 {
			s.OutOfStockCount++
		}
		if p.Stock < LowStockThreshold {
			s.LowStockCount++
		}

		name := p.Category.Name
		i, ok := index[name]
		if !ok {
			i = len(s.CategoryStats)
			index[name] = i
			s.CategoryStats = append(s.CategoryStats, CategoryStats{Category: name})
		}
		s.CategoryStats[i].TotalProducts++
		s.CategoryStats[i].TotalStock += p.Stock
		s.CategoryStats[i].TotalValue += value
	}
	return s
}
