package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/backoffice-insights/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, sku, price, stock, status,
		category_id, category_name, brand_id, brand_name
		FROM products ORDER BY id`

	upsertProductSQL = `INSERT INTO products (id, name, sku, price, stock, status,
		category_id, category_name, brand_id, brand_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sku = EXCLUDED.sku,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			status = EXCLUDED.status,
			category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name,
			brand_id = EXCLUDED.brand_id,
			brand_name = EXCLUDED.brand_name,
			synced_at = now()`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the whole catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return products, nil
}

// Upsert inserts or replaces the given products in one batch and returns the
// number of rows written.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID, p.Name, p.SKU, decimal.NewFromFloat(p.Price), p.Stock, p.Status,
			p.Category.ID, p.Category.Name, p.Brand.ID, p.Brand.Name,
		)
	}
	return execBatch(ctx, r.pool, batch, "product")
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &price, &p.Stock, &p.Status,
		&p.Category.ID, &p.Category.Name, &p.Brand.ID, &p.Brand.Name,
	)
	p.Price = price.InexactFloat64()
	return p, err
}

// execBatch sends batch and sums the affected rows.
func execBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch, what string) (int64, error) {
	br := pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	var written int64
	for i := range batch.Len() {
		tag, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("upserting %s %d of %d: %w", what, i+1, batch.Len(), err)
		}
		written += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return written, fmt.Errorf("closing %s batch: %w", what, err)
	}
	return written, nil
}
