package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HammerMeetNail/splitledger/internal/config"
	"github.com/HammerMeetNail/splitledger/internal/database"
	"github.com/HammerMeetNail/splitledger/internal/events"
	"github.com/HammerMeetNail/splitledger/internal/handlers"
	"github.com/HammerMeetNail/splitledger/internal/logging"
	"github.com/HammerMeetNail/splitledger/internal/metrics"
	"github.com/HammerMeetNail/splitledger/internal/middleware"
	"github.com/HammerMeetNail/splitledger/internal/services"
	"github.com/HammerMeetNail/splitledger/migrations"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)

	logger.Info("Starting splitledger server...", map[string]interface{}{
		"env": cfg.Server.Environment,
	})

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), migrations.FS)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	var publisher services.EventPublisher = services.NoopPublisher{}
	if cfg.AMQP.Enabled() {
		amqpPublisher, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		defer func() { _ = amqpPublisher.Close() }()
		publisher = amqpPublisher
		logger.Info("Publishing ledger events", map[string]interface{}{
			"exchange": cfg.AMQP.Exchange,
		})
	}

	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter)
	friendService := services.NewFriendService(dbAdapter, publisher)
	statsService := services.NewStatsService(dbAdapter, redisAdapter, cfg.Stats.CacheTTL)
	expenseService := services.NewExpenseService(dbAdapter, friendService, statsService, publisher)
	balanceService := services.NewBalanceService(dbAdapter, friendService)

	healthHandler := handlers.NewHealthHandler(
		handlers.HealthCheck{Name: "postgres", Checker: db},
		handlers.HealthCheck{Name: "redis", Checker: redisDB},
	)
	if cfg.Gateway.Token == "" {
		logger.Warn("GATEWAY_TOKEN is not set; login is disabled")
	}
	authHandler := handlers.NewAuthHandler(authService, cfg.Server.Secure, cfg.Gateway.Token)
	userHandler := handlers.NewUserHandler(userService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	friendHandler := handlers.NewFriendHandler(friendService)
	balanceHandler := handlers.NewBalanceHandler(balanceService)
	statsHandler := handlers.NewStatsHandler(statsService)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)
	rateLimiter := middleware.NewRateLimiter(
		redisDB.Client,
		int64(cfg.RateLimit.Requests),
		cfg.RateLimit.Window,
		database.RateLimitKeyPrefix,
		middleware.GetClientIP,
		true,
	)

	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Protect(h)
	}

	mux := http.NewServeMux()

	// Probes and metrics (no auth)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authMiddleware.Authenticate(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", protect(authHandler.Me))

	// Users
	mux.Handle("GET /api/users", protect(userHandler.List))
	mux.Handle("GET /api/users/{id}", protect(userHandler.Get))

	// Expenses
	mux.Handle("GET /api/expenses", protect(expenseHandler.List))
	mux.Handle("POST /api/expenses", protect(expenseHandler.Create))
	mux.Handle("DELETE /api/expenses/{id}", protect(expenseHandler.Delete))

	// Stats
	mux.Handle("GET /api/stats", protect(statsHandler.Get))

	// Friends and balances
	mux.Handle("GET /api/friends", protect(friendHandler.List))
	mux.Handle("GET /api/friends/balances", protect(balanceHandler.List))
	mux.Handle("GET /api/friends/{id}/balance", protect(balanceHandler.Get))
	mux.Handle("GET /api/friends/requests/incoming", protect(friendHandler.Incoming))
	mux.Handle("GET /api/friends/requests/outgoing", protect(friendHandler.Outgoing))
	mux.Handle("POST /api/friends/requests", protect(friendHandler.SendRequest))
	mux.Handle("PUT /api/friends/requests/{senderId}/accept", protect(friendHandler.AcceptRequest))
	mux.Handle("PUT /api/friends/requests/{senderId}/reject", protect(friendHandler.RejectRequest))
	mux.Handle("DELETE /api/friends/requests/{recipientId}", protect(friendHandler.CancelRequest))

	// Middleware chain (outermost last). None of these replace the request,
	// so the logger sees the pattern the mux matched.
	var handler http.Handler = mux
	handler = rateLimiter.Middleware(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{"addr": addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
