// Command order-ingest loads gzip-compressed NDJSON order dumps into the
// Postgres read model.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/storage/postgres"
	"github.com/xenking/backoffice-insights/internal/wire"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	maxLineSize   = 4 << 20
)

// upserter writes a batch of orders, keeping the newest version of each.
type upserter interface {
	Upsert(ctx context.Context, orders []order.Order) (int64, error)
}

// fileStats summarizes pass 2 over a single dump.
type fileStats struct {
	orders     uint64
	duplicates uint64
	written    int64
}

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
		batchSize   int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing order dumps")
	flag.StringVar(&pattern, "pattern", "orders*.ndjson.gz", "glob of order dump files within data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch", 500, "orders per upsert batch")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if batchSize < 1 {
		slog.Error("batch size must be positive", slog.Int("batch", batchSize))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, pattern, databaseURL, batchSize); err != nil {
		slog.Error("order ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order ingest completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string, batchSize int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob dumps")
	}
	if len(files) == 0 {
		slog.Info("no order dumps found", slog.String("dir", dataDir), slog.String("pattern", pattern))
		return nil
	}
	sort.Strings(files)

	// Pass 1: Build bloom filters of order IDs concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Pass 2: Upsert orders, flagging IDs seen in earlier dumps.
	slog.Info("pass 2: writing orders", slog.Int("batch", batchSize))

	stats, err := ingestFiles(ctx, files, filters, postgres.NewOrderRepository(pool), batchSize)
	if err != nil {
		return errors.Wrap(err, "ingest orders")
	}

	var total fileStats
	for _, s := range stats {
		total.orders += s.orders
		total.duplicates += s.duplicates
		total.written += s.written
	}
	slog.Info("orders ingested",
		slog.Uint64("orders", total.orders),
		slog.Uint64("probable_duplicates", total.duplicates),
		slog.Int64("written", total.written),
	)

	return nil
}

// buildBloomFilters creates one bloom filter of order IDs per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			var count uint64

			if err := streamOrders(ctx, f, func(o order.Order) error {
				filter.AddString(orderKey(o))
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.String("file", f), slog.Uint64("orders", count))
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "build filter for %s", f)
			}

			slog.Info("pass 1 complete", slog.String("file", f), slog.Uint64("total_orders", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

// ingestFiles streams every file concurrently and upserts its orders in
// batches. An order whose ID is in an earlier file's filter is counted as a
// probable duplicate; the upsert keeps the most recently updated version.
func ingestFiles(ctx context.Context, files []string, filters []*bloom.BloomFilter, repo upserter, batchSize int) ([]fileStats, error) {
	stats := make([]fileStats, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			var (
				s     fileStats
				batch = make([]order.Order, 0, batchSize)
			)
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				n, err := repo.Upsert(ctx, batch)
				if err != nil {
					return errors.Wrap(err, "upsert batch")
				}
				s.written += n
				batch = batch[:0]
				return nil
			}

			if err := streamOrders(ctx, f, func(o order.Order) error {
				s.orders++
				key := orderKey(o)
				for _, prev := range filters[:i] {
					if prev.TestString(key) {
						s.duplicates++
						break
					}
				}
				if s.orders%progressEvery == 0 {
					slog.Info("pass 2 progress", slog.String("file", f), slog.Uint64("orders", s.orders))
				}

				batch = append(batch, o)
				if len(batch) == batchSize {
					return flush()
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "ingest %s", f)
			}
			if err := flush(); err != nil {
				return errors.Wrapf(err, "ingest %s", f)
			}

			slog.Info("pass 2 complete",
				slog.String("file", f),
				slog.Uint64("total_orders", s.orders),
				slog.Uint64("probable_duplicates", s.duplicates),
				slog.Int64("written", s.written),
			)
			stats[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}

func orderKey(o order.Order) string {
	return strconv.FormatInt(o.ID, 10)
}

// streamOrders opens a gzip-compressed NDJSON file and calls fn for each
// decoded order. Blank lines are skipped.
func streamOrders(ctx context.Context, path string, fn func(o order.Order) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var line int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		o, err := wire.DecodeOrder(jx.DecodeBytes(raw))
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		if err := fn(o); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
