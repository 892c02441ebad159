package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"careercoach-backend/internal/shared/telemetry"
)

// ServerConfig configures the task server.
type ServerConfig struct {
	RedisURL    string
	Concurrency int
}

// NewServer builds an asynq server with the sweep handler registered.
func NewServer(cfg ServerConfig, sweeper Sweeper) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		// sweeps are sequential; one slot is enough
		concurrency = 1
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     concurrency,
		ShutdownTimeout: 30 * time.Second,
		Logger:          newAsynqLogger(telemetry.Logger()),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			telemetry.Error("worker.task.failed", map[string]any{
				"task":      task.Type(),
				"retry":     retried,
				"max_retry": maxRetry,
				"error":     err,
			})
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskInsightsSweep, HandleSweep(sweeper))
	return srv, mux, nil
}
