package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/rentalbooking/internal/api"
	"github.com/chrisdamba/rentalbooking/internal/cache"
	"github.com/chrisdamba/rentalbooking/internal/client"
	"github.com/chrisdamba/rentalbooking/internal/middleware"
	"github.com/chrisdamba/rentalbooking/internal/ports"
	"github.com/chrisdamba/rentalbooking/internal/queue"
	"github.com/chrisdamba/rentalbooking/internal/repository"
	"github.com/chrisdamba/rentalbooking/internal/service"
	"github.com/chrisdamba/rentalbooking/pkg/config"
	"github.com/chrisdamba/rentalbooking/pkg/health"
	"github.com/chrisdamba/rentalbooking/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	db        *pgxpool.Pool
	mongo     *mongo.Client
	redis     *redis.Client
	publisher *queue.Publisher
}

func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.setupDatabase(ctx); err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}

	if err := a.setupMarketplace(ctx); err != nil {
		return fmt.Errorf("marketplace setup failed: %w", err)
	}

	if err := a.setupCache(ctx); err != nil {
		return fmt.Errorf("cache setup failed: %w", err)
	}

	if err := a.setupBroker(); err != nil {
		return fmt.Errorf("broker setup failed: %w", err)
	}

	if err := a.setupServer(); err != nil {
		return fmt.Errorf("server setup failed: %w", err)
	}

	return nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	config, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	a.db = pool

	if a.config.Database.AutoMigrate {
		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.logger.Info("database migrated", zap.Strings("applied", applied))
	}
	return nil
}

func (a *App) setupMarketplace(ctx context.Context) error {
	cli, err := client.Connect(ctx, a.config.Mongo.URI, a.config.Mongo.Timeout)
	if err != nil {
		return err
	}
	a.mongo = cli
	return nil
}

// setupCache is optional; without redis the stats cache and rate limiter are disabled.
func (a *App) setupCache(ctx context.Context) error {
	if a.config.Redis.URL == "" {
		a.logger.Warn("REDIS_URL not set, stats cache and rate limiting disabled")
		return nil
	}
	rdb, err := cache.NewRedisClient(ctx, a.config.Redis.URL)
	if err != nil {
		return err
	}
	a.redis = rdb
	return nil
}

func (a *App) setupBroker() error {
	if a.config.AMQP.URL == "" {
		a.logger.Warn("AMQP_URL not set, booking events will not be published")
		return nil
	}
	p, err := queue.Dial(a.config.AMQP.URL, a.config.AMQP.Exchange)
	if err != nil {
		return err
	}
	a.publisher = p
	return nil
}

func (a *App) setupServer() error {
	services := a.setupServices()
	router := a.setupRouter(services)

	a.server = &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      router,
		WriteTimeout: a.config.Server.WriteTimeout,
		ReadTimeout:  a.config.Server.ReadTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	return nil
}

type Services struct {
	BookingService ports.BookingService
}

func (a *App) setupServices() Services {
	repo := repository.NewBookingRepository(a.db)
	marketplace := client.NewMarketplace(
		a.mongo.Database(a.config.Mongo.Database),
		client.WithTimeout(a.config.Mongo.Timeout),
	)

	opts := []service.Option{service.WithLogger(a.logger.Named("booking"))}
	if a.publisher != nil {
		opts = append(opts, service.WithEventPublisher(a.publisher))
	}
	if a.redis != nil {
		opts = append(opts, service.WithStatsCache(cache.NewStatsCache(a.redis, a.config.Redis.StatsTTL)))
	}

	return Services{
		BookingService: service.NewBookingService(repo, marketplace, marketplace, marketplace, opts...),
	}
}

func (a *App) setupRouter(services Services) http.Handler {
	handler := api.NewHandler(
		services.BookingService,
		api.WithLogger(a.logger.Named("api")),
		api.WithInternalErrors(a.config.App.IsDevelopment()),
	)

	healthCheck := health.HealthGet(a.healthCheckers()...)
	authenticator := middleware.NewAuthenticator(a.config.Auth.JWTSecret)
	limiter := middleware.NewRateLimiter(a.redis, a.config.RateLimit.Requests, a.config.RateLimit.Window, a.logger.Named("ratelimit"))

	router := api.NewRouter(handler, healthCheck, authenticator.Authenticate, limiter.Limit)
	return middleware.Recover(a.logger)(middleware.RequestLogger(a.logger.Named("http"))(router))
}

func (a *App) healthCheckers() []health.Option {
	opts := []health.Option{
		health.WithChecker("db", a.db.Ping),
		health.WithChecker("mongo", func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) }),
	}
	if a.redis != nil {
		opts = append(opts, health.WithChecker("redis", func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }))
	}
	return opts
}

func (a *App) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		a.logger.Info("starting server", zap.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-shutdown:
		a.logger.Info("starting graceful shutdown")
		return a.Shutdown(ctx)
	case <-ctx.Done():
		return a.Shutdown(ctx)
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown failed: %w", err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("broker close failed: %w", err))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close failed: %w", err))
		}
	}

	if a.mongo != nil {
		if err := a.mongo.Disconnect(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("mongo disconnect failed: %w", err))
		}
	}

	if a.db != nil {
		a.db.Close()
	}

	return errors.Join(errs...)
}

func main() {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to read .env: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	app := NewApp(cfg, zl)
	if err := app.Initialize(ctx); err != nil {
		_ = app.Shutdown(ctx)
		zl.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Run(ctx); err != nil {
		zl.Fatal("application error", zap.Error(err))
	}
}
