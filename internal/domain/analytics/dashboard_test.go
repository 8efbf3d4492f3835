package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
)

func TestDashboard(t *testing.T) {
	unpaid := newOrder(3, 1000, nil, daysAgo(1))
	unpaid.PaymentStatus = order.PaymentPending

	orders := []order.Order{
		newOrder(1, 100, nil, daysAgo(5)),
		newOrder(2, 200, nil, daysAgo(2)),
		unpaid,
		newOrder(4, 50, nil, daysAgo(9)),
		newOrder(5, 10, nil, daysAgo(3)),
		newOrder(6, 20, nil, daysAgo(7)),
		newOrder(7, 30, nil, daysAgo(2)),
	}
	products := []product.Product{
		newProduct(1, "a", 0, 10),
		newProduct(2, "b", 50, 1),
	}

	got := Dashboard(orders, products)

	assert.Equal(t, 2, got.TotalProducts)
	assert.Equal(t, 7, got.TotalOrders)
	assert.InDelta(t, 410, got.TotalRevenue, eps)

	require.Len(t, got.RecentOrders, 5)
	var ids []int64
	for _, o := range got.RecentOrders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []int64{3, 2, 7, 5, 1}, ids)

	require.Len(t, got.LowStock.Items, 1)
	assert.Equal(t, int64(1), got.LowStock.Items[0].Product.ID)
	assert.Equal(t, 1, got.Inventory.OutOfStockCount)
	assert.Empty(t, got.TopProducts)

	// Input order is untouched.
	assert.Equal(t, int64(1), orders[0].ID)
}

func TestDashboard_Empty(t *testing.T) {
	got := Dashboard(nil, nil)

	assert.Zero(t, got.TotalOrders)
	assert.NotNil(t, got.RecentOrders)
	assert.Empty(t, got.RecentOrders)
	assert.Empty(t, got.LowStock.Items)
}
