// Package app wires the API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-backoffice/internal/domain/auth"
	"github.com/xenking/storefront-backoffice/internal/domain/cart"
	"github.com/xenking/storefront-backoffice/internal/domain/product"
	"github.com/xenking/storefront-backoffice/internal/domain/user"
	"github.com/xenking/storefront-backoffice/internal/domain/validate"
	"github.com/xenking/storefront-backoffice/internal/events"
	"github.com/xenking/storefront-backoffice/internal/handler"
	"github.com/xenking/storefront-backoffice/internal/repository"
	"github.com/xenking/storefront-backoffice/pkg/health"
	"github.com/xenking/storefront-backoffice/pkg/httpmiddleware"
)

const serviceName = "store-api"

// Run creates all dependencies, starts the HTTP server and the user update
// consumer, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(cfg.DatabaseURL, lg); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Readiness, health.Check{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Func:    health.PingCheck(pool),
	})
	healthSvc.Add(health.Liveness, health.Check{
		Name: "goroutines",
		Func: health.GoroutineLimit(10000),
	})

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	ruleRepo := repository.NewRuleRepository(pool)

	// User update events.
	var (
		publisher      user.Publisher = events.NopPublisher{}
		consumerClient events.ConsumerClient
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewProducerClient(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return errors.Wrap(err, "connect kafka producer")
		}
		defer producer.Close()
		publisher = events.NewPublisher(producer, cfg.Kafka.Topic)
		healthSvc.Add(health.Readiness, health.Check{
			Name:    "kafka",
			Timeout: 5 * time.Second,
			Func:    health.PingCheck(producer),
		})

		cl, err := events.NewConsumerClient(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group)
		if err != nil {
			return errors.Wrap(err, "connect kafka consumer")
		}
		consumerClient = cl
	} else {
		lg.Info("Kafka brokers not configured, user update events disabled")
	}

	// Domain services.
	v := validate.New()
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	userSvc := user.NewService(userRepo, hasher, publisher, v)
	productSvc := product.NewService(productRepo, v)
	cartSvc := cart.NewService(cartRepo, userRepo, productSvc, ruleRepo, v,
		cart.WithTelemetry(m.TracerProvider(), m.MeterProvider()),
	)
	authSvc := auth.NewService(userRepo, hasher, auth.NewTokens([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL))

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.Handler(health.Liveness))
	mux.HandleFunc("GET /readyz", healthSvc.Handler(health.Readiness))
	handler.New(handler.Config{
		ImageBaseURL: cfg.ImageBaseURL,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, authSvc, userSvc, productSvc, cartSvc).Register(mux)

	limiter := httpmiddleware.NewLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recover(),
			httpmiddleware.RequestID(),
			httpmiddleware.CORS(httpmiddleware.CORSOptions{
				Origins:     cfg.CORS.Origins,
				Headers:     []string{"Content-Type", "Authorization", httpmiddleware.HeaderRequestID},
				Expose:      []string{httpmiddleware.HeaderRequestID, "Retry-After"},
				Credentials: cfg.CORS.AllowCredentials,
				MaxAge:      86400,
			}),
			httpmiddleware.RateLimit(limiter, nil),
			httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.Labeler(),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	if consumerClient != nil {
		consumer := events.NewConsumer(consumerClient, cartSvc)
		g.Go(func() error {
			defer consumer.Close()
			return consumer.Run(zctx.Base(gctx, lg.Named("events")))
		})
	}

	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
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
