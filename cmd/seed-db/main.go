// Command seed-db loads back-office fixtures into the Postgres read model.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/backoffice-insights/internal/domain/auth"
	"github.com/xenking/backoffice-insights/internal/storage/postgres"
	"github.com/xenking/backoffice-insights/internal/wire"
)

func main() {
	var (
		databaseURL  string
		ordersFile   string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ordersFile, "orders-file", "db/seed/orders.json", "path to orders JSON file")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to print the configuration hash of (or INSIGHTS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or INSIGHTS_AUTH_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("INSIGHTS_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("INSIGHTS_AUTH_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, ordersFile, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if apiKey != "" {
		// The server only stores hashes; print the one to configure.
		slog.Info("api key hash",
			slog.String("env", "INSIGHTS_AUTH_API_KEY_HASHES"),
			slog.String("hash", auth.Hash([]byte(apiKeyPepper), apiKey)),
		)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, ordersFile, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := readCollection(productsFile, wire.DecodeProducts)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	n, err := postgres.NewProductRepository(pool).Upsert(ctx, products)
	if err != nil {
		return errors.Wrap(err, "upsert products")
	}
	slog.Info("upserted products", slog.Int("read", len(products)), slog.Int64("written", n))

	orders, err := readCollection(ordersFile, wire.DecodeOrders)
	if err != nil {
		return errors.Wrap(err, "read orders")
	}
	n, err = postgres.NewOrderRepository(pool).Upsert(ctx, orders)
	if err != nil {
		return errors.Wrap(err, "upsert orders")
	}
	slog.Info("upserted orders", slog.Int("read", len(orders)), slog.Int64("written", n))

	return nil
}

// readCollection reads a fixture in the shape of a back-office list response:
// either a bare array or an object with a data array.
func readCollection[T any](path string, decode func(d *jx.Decoder) ([]T, error)) ([]T, error) {
	slog.Info("reading fixture", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	return decodeCollection(jx.DecodeBytes(data), decode)
}

func decodeCollection[T any](d *jx.Decoder, decode func(d *jx.Decoder) ([]T, error)) ([]T, error) {
	switch d.Next() {
	case jx.Array:
		return decode(d)
	case jx.Object:
		var items []T
		err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "data" {
				return d.Skip()
			}
			var err error
			items, err = decode(d)
			return err
		})
		if err != nil {
			return nil, errors.Wrap(err, "decode")
		}
		return items, nil
	default:
		return nil, errors.Errorf("unexpected %s fixture", d.Next())
	}
}
