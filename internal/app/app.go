package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/backoffice-insights/internal/domain/analytics"
	"github.com/xenking/backoffice-insights/internal/domain/auth"
	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
	"github.com/xenking/backoffice-insights/internal/handler"
	"github.com/xenking/backoffice-insights/internal/storage/backoffice"
	"github.com/xenking/backoffice-insights/internal/storage/cache"
	"github.com/xenking/backoffice-insights/internal/storage/postgres"
	"github.com/xenking/backoffice-insights/pkg/health"
	"github.com/xenking/backoffice-insights/pkg/httpmiddleware"
)

// snapshots are the order and product sources the views read from.
type snapshots struct {
	orders   order.Repository
	products product.Repository
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("source", cfg.Source),
		zap.Bool("cache", cfg.Redis.Addr != ""),
	)

	loc, err := time.LoadLocation(cfg.Insights.Timezone)
	if err != nil {
		return errors.Wrap(err, "load timezone")
	}

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))

	// Snapshot source.
	var src snapshots
	switch cfg.Source {
	case SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if cfg.Migrate {
			if err := postgres.RunMigrations(ctx, pool); err != nil {
				return errors.Wrap(err, "run migrations")
			}
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
		src = snapshots{
			orders:   postgres.NewOrderRepository(pool),
			products: postgres.NewProductRepository(pool),
		}
	default:
		client, err := backoffice.New(cfg.Backoffice.URL,
			backoffice.StaticSession(cfg.Backoffice.Token),
			backoffice.WithPageSize(cfg.Backoffice.PageSize),
			backoffice.WithTimeout(cfg.Backoffice.Timeout),
		)
		if err != nil {
			return errors.Wrap(err, "create backoffice client")
		}
		healthSvc.AddReadinessCheck("backoffice", cfg.Backoffice.Timeout, health.PingCheck(client))
		src = snapshots{
			orders:   client.Orders(),
			products: client.Products(),
		}
	}

	// Shared snapshot cache.
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		store := cache.NewRedisStore(rdb)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(store))
		src = snapshots{
			orders:   cache.Orders(src.orders, store, cfg.Redis.TTL),
			products: cache.Products(src.products, store, cfg.Redis.TTL),
		}
	}

	svc, err := analytics.NewService(src.orders, src.products,
		analytics.WithLocation(loc),
		analytics.WithCommissionRate(cfg.Insights.CommissionRate),
		analytics.WithSellerShare(cfg.Insights.SellerShare),
		analytics.WithTopN(cfg.Insights.TopN),
		analytics.WithMeterProvider(m.MeterProvider()),
		analytics.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create analytics service")
	}

	// API key guard, enabled by configured hashes. Known keys also get their
	// own rate limit budget.
	var guards []httpmiddleware.Middleware
	limit := httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
		KeyMax: cfg.RateLimit.KeyMax,
	}
	if len(cfg.Auth.APIKeyHashes) > 0 {
		keys, err := auth.NewKeys(cfg.Auth.APIKeyHashes)
		if err != nil {
			return errors.Wrap(err, "parse api keys")
		}
		security := handler.NewSecurityHandler(keys, []byte(cfg.Auth.APIKeyPepper))
		guards = append(guards, security.Middleware)
		limit.Identify = security.Identify
		lg.Info("API key guard enabled", zap.Int("keys", keys.Len()))
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", handler.NewHandler(svc).Routes(guards...))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// A cold snapshot walks every back-office page.
		WriteTimeout:   time.Minute,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, limit),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Instrument("insights-api", m),
			httpmiddleware.Route(),
			httpmiddleware.LogRequests("/livez", "/readyz"),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
