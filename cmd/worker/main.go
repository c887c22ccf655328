package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nurseport/staffing-backend/internal/analysis"
	"github.com/nurseport/staffing-backend/internal/config"
	"github.com/nurseport/staffing-backend/internal/database"
	"github.com/nurseport/staffing-backend/internal/llm"
	"github.com/nurseport/staffing-backend/internal/queue"
	"github.com/nurseport/staffing-backend/internal/queue/workers"
	"github.com/nurseport/staffing-backend/internal/storage"
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

	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		store, err = storage.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			slog.Warn("object storage unavailable", "error", err)
			store = nil
		}
	}

	analysisSvc := analysis.NewService(
		analysis.NewRepository(db),
		llm.NewGateway(cfg.LLM),
		store,
		nil, // the worker never re-enqueues
		cfg.LLM.RequestTimeout,
		cfg.LLM.DefaultModel,
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	analysisWorker := workers.NewAnalysisWorker(analysisSvc)
	registry.Register(queue.TypeAnalysisRun, asynq.HandlerFunc(analysisWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
