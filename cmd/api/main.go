package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nurseport/staffing-backend/internal/analysis"
	"github.com/nurseport/staffing-backend/internal/api"
	"github.com/nurseport/staffing-backend/internal/cache"
	"github.com/nurseport/staffing-backend/internal/config"
	"github.com/nurseport/staffing-backend/internal/database"
	"github.com/nurseport/staffing-backend/internal/llm"
	"github.com/nurseport/staffing-backend/internal/presence"
	"github.com/nurseport/staffing-backend/internal/queue"
	"github.com/nurseport/staffing-backend/internal/storage"
	"github.com/nurseport/staffing-backend/internal/tenant"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	}
	defer rdb.Close()

	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		store, err = storage.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			slog.Warn("object storage unavailable, uploads will not be retained", "error", err)
			store = nil
		}
	}

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	tenants := tenant.NewService(db)
	presenceSvc := presence.NewService(presence.NewRepository(db), cache.NewCache(rdb), cfg.Presence.CacheTTL)
	analysisSvc := analysis.NewService(
		analysis.NewRepository(db),
		llm.NewGateway(cfg.LLM),
		store,
		queueClient,
		cfg.LLM.RequestTimeout,
		cfg.LLM.DefaultModel,
	)

	sweeper := presence.NewSweeper(presenceSvc, cfg.Presence.SweepInterval,
		time.Duration(cfg.Presence.TimeoutMinutes)*time.Minute)
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(db, rdb, cfg, presenceSvc, analysisSvc, tenants)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
