package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/backoffice-insights/internal/domain/product"
)

func TestRestock(t *testing.T) {
	for _, tt := range []struct {
		stock      int
		urgency    Urgency
		suggestion int
	}{
		{stock: -2, urgency: UrgencyCritical, suggestion: 25},
		{stock: 0, urgency: UrgencyCritical, suggestion: 50},
		{stock: 1, urgency: UrgencyCritical, suggestion: 25},
		{stock: 3, urgency: UrgencyCritical, suggestion: 25},
		{stock: 4, urgency: UrgencyWarning, suggestion: 20},
		{stock: 5, urgency: UrgencyWarning, suggestion: 25},
		{stock: 6, urgency: UrgencyWarning, suggestion: 30},
		{stock: 7, urgency: UrgencyLow, suggestion: 21},
		{stock: 9, urgency: UrgencyLow, suggestion: 27},
	} {
		urgency, suggestion := Restock(tt.stock)
		assert.Equal(t, tt.urgency, urgency, "stock %d", tt.stock)
		assert.Equal(t, tt.suggestion, suggestion, "stock %d", tt.stock)
	}
}

func TestLowStock(t *testing.T) {
	products := []product.Product{
		newProduct(1, "ten", 10, 1),
		newProduct(2, "nine", 9, 2),
		newProduct(3, "zero", 0, 10),
		newProduct(4, "five", 5, 4),
		newProduct(5, "three", 3, 1),
		newProduct(6, "plenty", 120, 1),
		newProduct(7, "three again", 3, 1),
	}

	got := LowStock(products)

	require.Len(t, got.Items, 5)
	var ids []int64
	for _, it := range got.Items {
		ids = append(ids, it.Product.ID)
	}
	assert.Equal(t, []int64{3, 5, 7, 4, 2}, ids)

	assert.Equal(t, UrgencyCritical, got.Items[0].Urgency)
	assert.Equal(t, 50, got.Items[0].RestockSuggestion)
	assert.Equal(t, UrgencyWarning, got.Items[3].Urgency)
	assert.Equal(t, UrgencyLow, got.Items[4].Urgency)

	assert.Equal(t, 3, got.CriticalCount)
	assert.Equal(t, 1, got.WarningCount)
	assert.Equal(t, 1, got.LowCount)
	// 50 + 25 + 25 + 25 + 27
	assert.Equal(t, 152, got.TotalSuggestedUnits)
	// 50*10 + 25*1 + 25*1 + 25*4 + 27*2
	assert.InDelta(t, 704, got.EstimatedInvestment, eps)
}

func TestLowStock_Empty(t *testing.T) {
	got := LowStock([]product.Product{newProduct(1, "plenty", 10, 1)})

	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.TotalSuggestedUnits)
	assert.Zero(t, got.EstimatedInvestment)
}

func TestLowStock_NonFinitePrice(t *testing.T) {
	got := LowStock([]product.Product{
		newProduct(1, "nan", 0, nan()),
		newProduct(2, "ok", 0, 2),
	})

	assert.InDelta(t, 100, got.EstimatedInvestment, eps)
}
