package analytics

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
)

const instrumentationName = "github.com/xenking/backoffice-insights/internal/domain/analytics"

// Service fetches order and product snapshots and runs the pure views over
// them. Every call reads the clock once, so all parts of one response share
// the same now.
type Service struct {
	orders   order.Repository
	products product.Repository

	now   func() time.Time
	loc   *time.Location
	rate  float64
	share float64
	topN  int

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	tracer  trace.Tracer
	reports metric.Int64Counter
	records metric.Int64Histogram
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used as now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone of calendar days and months.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithCommissionRate sets the commission rate of the earnings view.
func WithCommissionRate(rate float64) Option {
	return func(s *Service) { s.rate = rate }
}

// WithSellerShare sets the seller share of the top sellers ranking.
func WithSellerShare(share float64) Option {
	return func(s *Service) { s.share = share }
}

// WithTopN sets the size of the customer and seller rankings.
func WithTopN(n int) Option {
	return func(s *Service) { s.topN = n }
}

// WithMeterProvider sets the meter provider for report counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider for report spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// NewService creates a Service reading from the given snapshot sources.
func NewService(orders order.Repository, products product.Repository, opts ...Option) (*Service, error) {
	s := &Service{
		orders:         orders,
		products:       products,
		now:            time.Now,
		loc:            time.UTC,
		rate:           DefaultCommissionRate,
		share:          DefaultSellerShare,
		topN:           DefaultTopN,
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.reports, err = meter.Int64Counter("insights.reports",
		metric.WithDescription("Number of computed insight reports"),
	); err != nil {
		return nil, errors.Wrap(err, "create reports counter")
	}
	if s.records, err = meter.Int64Histogram("insights.snapshot.records",
		metric.WithDescription("Number of records in a fetched snapshot"),
	); err != nil {
		return nil, errors.Wrap(err, "create records histogram")
	}

	return s, nil
}

// OrderOverview is the orders screen: counters plus customer and seller
// rankings.
type OrderOverview struct {
	Stats        OrderStatistics
	TopCustomers []CustomerRank
	TopSellers   []SellerRank
}

// SalesTrend is the statistics screen: weekly revenue and daily sales.
type SalesTrend struct {
	Weekly []RevenueBucket
	Daily  []DailySale
}

// Earnings computes the commission view. A zero opts.Rate uses the
// configured commission rate.
func (s *Service) Earnings(ctx context.Context, opts EarningsOptions) (EarningsReport, error) {
	ctx, span := s.start(ctx, "earnings")
	defer span.End()

	orders, err := s.listOrders(ctx)
	if err != nil {
		return EarningsReport{}, fail(span, err)
	}
	if opts.Rate == 0 {
		opts.Rate = s.rate
	}
	return Earnings(orders, s.clock(), opts), nil
}

// OrderOverview computes the orders screen.
func (s *Service) OrderOverview(ctx context.Context) (OrderOverview, error) {
	ctx, span := s.start(ctx, "orders")
	defer span.End()

	orders, err := s.listOrders(ctx)
	if err != nil {
		return OrderOverview{}, fail(span, err)
	}
	return OrderOverview{
		Stats:        OrderStats(orders, s.clock()),
		TopCustomers: TopCustomers(orders, s.topN),
		TopSellers:   TopSellers(orders, s.topN, s.share),
	}, nil
}

// LowStock computes the restock suggestions.
func (s *Service) LowStock(ctx context.Context) (LowStockReport, error) {
	ctx, span := s.start(ctx, "low_stock")
	defer span.End()

	products, err := s.listProducts(ctx)
	if err != nil {
		return LowStockReport{}, fail(span, err)
	}
	return LowStock(products), nil
}

// Inventory computes the stock valuation.
func (s *Service) Inventory(ctx context.Context) (InventorySummary, error) {
	ctx, span := s.start(ctx, "inventory")
	defer span.End()

	products, err := s.listProducts(ctx)
	if err != nil {
		return InventorySummary{}, fail(span, err)
	}
	return Inventory(products), nil
}

// SalesTrend computes weekly revenue and daily sales.
func (s *Service) SalesTrend(ctx context.Context, weeks, days int) (SalesTrend, error) {
	ctx, span := s.start(ctx, "sales")
	defer span.End()

	orders, err := s.listOrders(ctx)
	if err != nil {
		return SalesTrend{}, fail(span, err)
	}
	now := s.clock()
	return SalesTrend{
		Weekly: WeeklyRevenue(orders, now, weeks),
		Daily:  DailySales(orders, now, days),
	}, nil
}

// TopProducts ranks products by units sold.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]ProductRank, error) {
	ctx, span := s.start(ctx, "top_products")
	defer span.End()

	orders, err := s.listOrders(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	return TopProducts(orders, limit), nil
}

// Dashboard computes the landing view, fetching both snapshots concurrently.
func (s *Service) Dashboard(ctx context.Context) (DashboardSummary, error) {
	ctx, span := s.start(ctx, "dashboard")
	defer span.End()

	var (
		orders   []order.Order
		products []product.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.listOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.listProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, fail(span, err)
	}
	return Dashboard(orders, products), nil
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) start(ctx context.Context, report string) (context.Context, trace.Span) {
	attrs := attribute.String("report", report)
	s.reports.Add(ctx, 1, metric.WithAttributes(attrs))
	return s.tracer.Start(ctx, "analytics."+report, trace.WithAttributes(attrs))
}

func (s *Service) listOrders(ctx context.Context) ([]order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.listOrders")
	defer span.End()

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	s.records.Record(ctx, int64(len(orders)), metric.WithAttributes(attribute.String("source", "orders")))
	return orders, nil
}

func (s *Service) listProducts(ctx context.Context) ([]product.Product, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.listProducts")
	defer span.End()

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	s.records.Record(ctx, int64(len(products)), metric.WithAttributes(attribute.String("source", "products")))
	return products, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
