package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/backoffice-insights/internal/domain/order"
)

func withCustomer(o order.Order, c *order.Customer) order.Order {
	o.Customer = c
	return o
}

func TestTopCustomers(t *testing.T) {
	ana := newCustomer(1, "ana")
	bob := newCustomer(2, "bob")
	// Same email as ana under another id and name.
	anaAgain := &order.Customer{ID: 9, Name: "Ana Maria", Email: "ana@x"}

	orders := []order.Order{
		withCustomer(newOrder(1, 100, nil, daysAgo(1)), ana),
		withCustomer(newOrder(2, 300, nil, daysAgo(1)), bob),
		withCustomer(newOrder(3, 250, nil, daysAgo(1)), anaAgain),
		newOrder(4, 1000, nil, daysAgo(1)),
	}

	got := TopCustomers(orders, 5)

	require.Len(t, got, 2)
	assert.Equal(t, CustomerRank{Name: "ana", Email: "ana@x", OrderCount: 2, TotalSpent: 350}, got[0])
	assert.Equal(t, CustomerRank{Name: "bob", Email: "bob@x", OrderCount: 1, TotalSpent: 300}, got[1])
}

func TestTopCustomers_Limit(t *testing.T) {
	var orders []order.Order
	for i := range 8 {
		c := newCustomer(int64(i), string(rune('a'+i)))
		orders = append(orders, withCustomer(newOrder(int64(i), float64(i+1), nil, daysAgo(1)), c))
	}

	assert.Len(t, TopCustomers(orders, 0), DefaultTopN)
	assert.Len(t, TopCustomers(orders, 3), 3)
	assert.Len(t, TopCustomers(orders, 20), 8)

	got := TopCustomers(orders, 3)
	assert.Equal(t, "h@x", got[0].Email)
	assert.Equal(t, "g@x", got[1].Email)
	assert.Equal(t, "f@x", got[2].Email)
}

func TestTopCustomers_Empty(t *testing.T) {
	got := TopCustomers(nil, 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTopSellers(t *testing.T) {
	a := newSeller(1, "a")
	b := newSeller(2, "b")
	c := newSeller(3, "c")

	orders := []order.Order{
		newOrder(1, 100, a, daysAgo(1)),
		newOrder(2, 100, b, daysAgo(1)),
		newOrder(3, 50, a, daysAgo(1)),
		newOrder(4, 150, c, daysAgo(1)),
		newOrder(5, 500, nil, daysAgo(1)),
	}

	got := TopSellers(orders, 5, 0)

	require.Len(t, got, 3)
	// a and c tie on 135; a was seen first.
	assert.Equal(t, "a@x", got[0].Email)
	assert.Equal(t, 2, got[0].SalesCount)
	assert.InDelta(t, 135, got[0].TotalEarnings, eps)
	assert.Equal(t, "c@x", got[1].Email)
	assert.InDelta(t, 135, got[1].TotalEarnings, eps)
	assert.Equal(t, "b@x", got[2].Email)
	assert.InDelta(t, 90, got[2].TotalEarnings, eps)
}

func TestTopSellers_Share(t *testing.T) {
	orders := []order.Order{newOrder(1, 200, newSeller(1, "a"), daysAgo(1))}

	got := TopSellers(orders, 5, 0.5)

	require.Len(t, got, 1)
	assert.InDelta(t, 100, got[0].TotalEarnings, eps)
}

func TestTopSellers_KeyedByEmail(t *testing.T) {
	orders := []order.Order{
		newOrder(1, 10, &order.Seller{ID: 1, Name: "first", Email: "same@x"}, daysAgo(1)),
		newOrder(2, 10, &order.Seller{ID: 2, Name: "second", Email: "same@x"}, daysAgo(1)),
	}

	got := TopSellers(orders, 5, 0)

	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, 2, got[0].SalesCount)
}
