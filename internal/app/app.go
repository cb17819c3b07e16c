// Package app wires the service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/fast-pizza/internal/domain/address"
	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/order"
	"github.com/xenking/fast-pizza/internal/events"
	"github.com/xenking/fast-pizza/internal/geo"
	"github.com/xenking/fast-pizza/internal/handler"
	"github.com/xenking/fast-pizza/internal/restaurant"
	"github.com/xenking/fast-pizza/internal/storage/postgres"
	"github.com/xenking/fast-pizza/pkg/health"
	"github.com/xenking/fast-pizza/pkg/httpmiddleware"
)

const serviceName = "fast-pizza"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	client := func(timeout time.Duration) *http.Client {
		return &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
		}
	}

	// Order backend: local PostgreSQL when configured, the restaurant API
	// otherwise.
	var orders order.Repository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		repo := postgres.NewOrderRepository(pool)
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(repo))
		orders = repo
		lg.Info("Using PostgreSQL order backend")
	} else {
		api := restaurant.New(client(cfg.Restaurant.Timeout), cfg.Restaurant.BaseURL)
		healthSvc.AddReadinessCheck("restaurant", cfg.Restaurant.Timeout, health.PingCheck(api))
		orders = api
		lg.Info("Using restaurant API order backend", zap.String("url", cfg.Restaurant.BaseURL))
	}

	var publisher events.Publisher = events.Nop{}
	if brokers := events.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.Kafka.Topic, cfg.Kafka.PublishTimeout)
		defer func() {
			if err := kp.Close(); err != nil {
				lg.Warn("Close kafka publisher", zap.Error(err))
			}
		}()
		publisher = kp
		lg.Info("Publishing order events", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	meter := m.MeterProvider().Meter(serviceName)
	form, err := order.NewFormController(orders, publisher, meter)
	if err != nil {
		return errors.Wrap(err, "create form controller")
	}
	priority, err := order.NewPriorityController(orders, publisher, meter)
	if err != nil {
		return errors.Wrap(err, "create priority controller")
	}

	geoClient := client(cfg.Geocoding.Timeout)
	h, err := handler.New(handler.Deps{
		Carts:    cart.NewMemoryStore(),
		Resolver: address.NewResolver(geo.NewBigDataCloud(geoClient, cfg.Geocoding.ReverseURL), address.NewStore()),
		Locator:  geo.NewIPLocator(geoClient, cfg.Geocoding.IPLocateURL),
		Orders:   orders,
		Form:     form,
		Priority: priority,
	})
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	router := mux.NewRouter()
	h.Register(router)
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	root := http.NewServeMux()
	root.HandleFunc("/livez", healthSvc.LiveEndpoint)
	root.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	root.Handle("/", httpmiddleware.Wrap(router,
		httpmiddleware.Session(httpmiddleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.MaxAge,
			Secure:     cfg.Session.Secure,
		}),
	))

	middlewares := []httpmiddleware.Middleware{
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
	}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.RateLimit.Max > 0 {
		limiter := httpmiddleware.NewLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		g.Go(func() error {
			limiter.Run(gctx)
			return nil
		})
		middlewares = append(middlewares, httpmiddleware.RateLimit(limiter, httpmiddleware.ClientIP))
	}
	middlewares = append(middlewares,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, routeFinder, m),
		httpmiddleware.LogRequests(routeFinder),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           httpmiddleware.Wrap(root, middlewares...),
	}

	healthSvc.Start(gctx, 10*time.Second)
	healthSvc.SetReady(true)

	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		healthSvc.Stop()
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
