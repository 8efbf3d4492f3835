package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/wire"
)

const (
	listOrdersSQL = `SELECT id, order_number,
		customer_id, customer_name, customer_email,
		seller_id, seller_name, seller_email, seller_role,
		items, total, status, payment_status, payment_method,
		created_at, updated_at
		FROM orders ORDER BY created_at NULLS FIRST, id`

	// An existing row is only replaced by a strictly newer version, so
	// replaying an older dump never rolls an order back.
	upsertOrderSQL = `INSERT INTO orders (id, order_number,
		customer_id, customer_name, customer_email,
		seller_id, seller_name, seller_email, seller_role,
		items, total, status, payment_status, payment_method,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			order_number = EXCLUDED.order_number,
			customer_id = EXCLUDED.customer_id,
			customer_name = EXCLUDED.customer_name,
			customer_email = EXCLUDED.customer_email,
			seller_id = EXCLUDED.seller_id,
			seller_name = EXCLUDED.seller_name,
			seller_email = EXCLUDED.seller_email,
			seller_role = EXCLUDED.seller_role,
			items = EXCLUDED.items,
			total = EXCLUDED.total,
			status = EXCLUDED.status,
			payment_status = EXCLUDED.payment_status,
			payment_method = EXCLUDED.payment_method,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			synced_at = now()
		WHERE orders.updated_at IS NULL OR orders.updated_at < EXCLUDED.updated_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// List returns every order, oldest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scanning orders: %w", err)
	}
	return orders, nil
}

// Upsert writes the given orders in one batch and returns the number of rows
// inserted or replaced. Rows whose stored updated_at is not older than the
// incoming one are left untouched and not counted.
func (r *OrderRepository) Upsert(ctx context.Context, orders []order.Order) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, o := range orders {
		var e jx.Encoder
		wire.EncodeItems(&e, o.Items)

		c := customerColumns(o.Customer)
		s := sellerColumns(o.Seller)
		batch.Queue(upsertOrderSQL,
			o.ID, o.OrderNumber,
			c.id, c.name, c.email,
			s.id, s.name, s.email, s.role,
			e.Bytes(), decimal.NewFromFloat(o.Total),
			string(o.Status), string(o.PaymentStatus), string(o.PaymentMethod),
			nullTime(o.CreatedAt), nullTime(o.UpdatedAt),
		)
	}
	return execBatch(ctx, r.pool, batch, "order")
}

// partyColumns are the nullable columns of a customer or seller.
type partyColumns struct {
	id    *int64
	name  *string
	email *string
	role  *string
}

func customerColumns(c *order.Customer) partyColumns {
	if c == nil {
		return partyColumns{}
	}
	return partyColumns{id: &c.ID, name: &c.Name, email: &c.Email}
}

func sellerColumns(s *order.Seller) partyColumns {
	if s == nil {
		return partyColumns{}
	}
	return partyColumns{id: &s.ID, name: &s.Name, email: &s.Email, role: &s.Role}
}

func (p partyColumns) present() bool {
	return p.id != nil || p.name != nil || p.email != nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                    order.Order
		c, s                 partyColumns
		items                []byte
		total                decimal.Decimal
		status, paid, method string
		createdAt, updatedAt *time.Time
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber,
		&c.id, &c.name, &c.email,
		&s.id, &s.name, &s.email, &s.role,
		&items, &total, &status, &paid, &method,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	o.Items, err = wire.DecodeItems(jx.DecodeBytes(items))
	if err != nil {
		return order.Order{}, fmt.Errorf("decoding items of order %d: %w", o.ID, err)
	}
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	if c.present() {
		o.Customer = &order.Customer{ID: deref(c.id), Name: deref(c.name), Email: deref(c.email)}
	}
	if s.present() {
		o.Seller = &order.Seller{ID: deref(s.id), Name: deref(s.name), Email: deref(s.email), Role: deref(s.role)}
	}
	o.Total = total.InexactFloat64()
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paid)
	o.PaymentMethod = order.PaymentMethod(method)
	o.CreatedAt = fromNullTime(createdAt)
	o.UpdatedAt = fromNullTime(updatedAt)
	return o, nil
}
