package analytics

import (
	"cmp"
	"slices"

	"github.com/xenking/backoffice-insights/internal/domain/product"
)

// LowStockThreshold is the stock level below which a product needs restocking.
const LowStockThreshold = 10

// Urgency is the restock priority tier of a low-stock product.
type Urgency string

// Urgency tiers, most urgent first.
const (
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyLow      Urgency = "low"
)

func (u Urgency) rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyWarning:
		return 1
	default:
		return 2
	}
}

// LowStockItem is a product below LowStockThreshold with its restock advice.
type LowStockItem struct {
	Product           product.Product
	Urgency           Urgency
	RestockSuggestion int
}

// LowStockReport lists the products that need restocking, most urgent first.
type LowStockReport struct {
	Items               []LowStockItem
	CriticalCount       int
	WarningCount        int
	LowCount            int
	TotalSuggestedUnits int
	EstimatedInvestment float64
}

// Restock returns the urgency tier and suggested restock quantity for a
// product holding stock units. It is only meaningful below LowStockThreshold.
func Restock(stock int) (Urgency, int) {
	switch {
	case stock == 0:
		return UrgencyCritical, 50
	case stock <= 3:
		return UrgencyCritical, max(25, stock*8)
	case stock <= 6:
		return UrgencyWarning, max(20, stock*5)
	default:
		return UrgencyLow, max(15, stock*3)
	}
}

// LowStock returns every product with stock below LowStockThreshold, sorted by
// urgency tier and then by ascending stock.
func LowStock(products []product.Product) LowStockReport {
	report := LowStockReport{Items: []LowStockItem{}}
	for _, p := range products {
		if p.Stock >= LowStockThreshold {
			continue
		}
		urgency, suggestion := Restock(p.Stock)
		report.Items = append(report.Items, LowStockItem{
			Product:           p,
			Urgency:           urgency,
			RestockSuggestion: suggestion,
		})

		switch urgency {
		case UrgencyCritical:
			report.CriticalCount++
		case UrgencyWarning:
			report.WarningCount++
		case UrgencyLow:
			report.LowCount++
		}
		report.TotalSuggestedUnits += suggestion
		report.EstimatedInvestment += float64(suggestion) * finite(p.Price)
	}

	slices.SortStableFunc(report.Items, func(a, b LowStockItem) int {
		if c := cmp.Compare(a.Urgency.rank(), b.Urgency.rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.Product.Stock, b.Product.Stock)
	})
	return report
}
