package backoffice

import (
	"context"

	"github.com/go-faster/jx"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
	"github.com/xenking/backoffice-insights/internal/wire"
)

// ListOrders fetches every order.
func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	orders := make([]order.Order, 0)
	err := listAll(ctx, c, "/api/orders", func(d *jx.Decoder) (int, error) {
		page, err := wire.DecodeOrders(d)
		orders = append(orders, page...)
		return len(page), err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListProducts fetches every product.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	products := make([]product.Product, 0)
	err := listAll(ctx, c, "/api/products", func(d *jx.Decoder) (int, error) {
		page, err := wire.DecodeProducts(d)
		products = append(products, page...)
		return len(page), err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Orders returns the client as an order repository.
func (c *Client) Orders() *OrderSource {
	return &OrderSource{client: c}
}

// Products returns the client as a product repository.
func (c *Client) Products() *ProductSource {
	return &ProductSource{client: c}
}

// OrderSource adapts Client to order.Repository.
type OrderSource struct {
	client *Client
}

// List implements order.Repository.
func (s *OrderSource) List(ctx context.Context) ([]order.Order, error) {
	return s.client.ListOrders(ctx)
}

// ProductSource adapts Client to product.Repository.
type ProductSource struct {
	client *Client
}

// List implements product.Repository.
func (s *ProductSource) List(ctx context.Context) ([]product.Product, error) {
	return s.client.ListProducts(ctx)
}
