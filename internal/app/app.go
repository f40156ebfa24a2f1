// Package app assembles the catalog service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/logger"
	"catalog/internal/metrics"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const serviceName = "product-catalog"

// App is a fully wired service instance.
type App struct {
	Fiber    *fiber.App
	Registry *prometheus.Registry

	cfg     *config.Config
	events  *rabbitmq.Client
	closers []func() error
}

// store bundles the repositories of one storage backend.
type store struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	close    func() error
}

// New opens the configured store and optional RabbitMQ and Redis clients, then
// builds services, handlers, middleware and routes. Close releases everything.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		Registry: prometheus.NewRegistry(),
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	var publisher services.ProductEventPublisher
	if cfg.RabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("RabbitMQ unavailable - product events disabled")
		} else {
			a.events = client
			publisher = client
			a.closers = append(a.closers, client.Close)
		}
	}

	redisClient := connectRedis(cfg)
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
	}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.Registry)

	productService := services.NewProductService(st.products, publisher)
	authService := services.NewAuthService(st.users, cfg.JWTSecret, cfg.JWTTTL)

	productHandler := handlers.NewProductHandler(productService, m)
	authHandler := handlers.NewAuthHandler(authService)
	limiter := middleware.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)

	a.Fiber = fiber.New(fiber.Config{
		AppName:               serviceName,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           30 * time.Second,
		DisableStartupMessage: !cfg.IsDevelopment(),
		ErrorHandler:          errorHandler,
	})

	a.Fiber.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	a.Fiber.Use(requestid.New())
	a.Fiber.Use(cors.New(cors.Config{
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-Id",
		ExposeHeaders: "X-Request-Id, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
	}))
	a.Fiber.Use(m.Middleware())
	a.Fiber.Use(logger.RequestLogger())

	api := a.Fiber.Group("/api")
	productHandler.RegisterRoutes(api, middleware.AuthRequired(authService))
	authHandler.RegisterRoutes(api, limiter.Middleware())

	a.Fiber.Get("/health", a.health)
	a.Fiber.Get("/metrics", metrics.Handler(a.Registry))

	return a, nil
}

func openStore(cfg *config.Config) (*store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.OpenGORM(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return &store{
			products: repositories.NewGORMProductRepository(db),
			users:    repositories.NewGORMUserRepository(db),
			close:    func() error { return database.CloseGORM(db) },
		}, nil

	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := database.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB)
		products := repositories.NewMongoProductRepository(db.Collection("products"))
		users := repositories.NewMongoUserRepository(db.Collection("users"))
		if err := products.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &store{
			products: products,
			users:    users,
			close:    func() error { return client.Disconnect(context.Background()) },
		}, nil

	case config.DriverMemory:
		return &store{
			products: repositories.NewMemoryProductRepository(),
			users:    repositories.NewMemoryUserRepository(),
			close:    func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
}

// connectRedis returns nil when Redis is not configured or not reachable.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Logger.Info().Msg("Rate limiting disabled (REDIS_ADDR not set)")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.RedisAddr).
			Msg("Failed to connect to Redis - rate limiting will be disabled")
		_ = client.Close()
		return nil
	}

	logger.Logger.Info().
		Str("redis_addr", cfg.RedisAddr).
		Int("max", cfg.RateLimitMax).
		Dur("window", cfg.RateLimitWindow).
		Msg("Rate limiting enabled")
	return client
}

func (a *App) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"storage": a.cfg.DatabaseDriver,
		"events":  a.events != nil,
	})
}

// Events returns the RabbitMQ client, or nil when events are disabled.
func (a *App) Events() *rabbitmq.Client {
	return a.events
}

// Close releases the clients opened by New in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// errorHandler answers errors that escape handlers in the API's JSON shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		logger.FromFiber(c).Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{
		"message": message,
	})
}
