package analytics

import (
	"math"
	"time"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
)

const eps = 1e-9

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newSeller(id int64, name string) *order.Seller {
	return &order.Seller{ID: id, Name: name, Email: name + "@x", Role: order.RoleAdmin}
}

func newCustomer(id int64, name string) *order.Customer {
	return &order.Customer{ID: id, Name: name, Email: name + "@x"}
}

func newOrder(id int64, total float64, seller *order.Seller, createdAt time.Time) order.Order {
	return order.Order{
		ID:            id,
		Seller:        seller,
		Total:         total,
		Status:        order.StatusCompleted,
		PaymentStatus: order.PaymentPaid,
		PaymentMethod: order.MethodInternalTransfer,
		CreatedAt:     createdAt,
	}
}

func newProduct(id int64, name string, stock int, price float64) product.Product {
	return product.Product{
		ID:       id,
		Name:     name,
		Stock:    stock,
		Price:    price,
		Category: product.Ref{ID: 1, Name: "default"},
	}
}

func daysAgo(n int) time.Time {
	return fixedNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func nan() float64 { return math.NaN() }

func inf() float64 { return math.Inf(1) }
