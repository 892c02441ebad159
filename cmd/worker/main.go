package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"careercoach-backend/internal/bootstrap"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/worker"
)

const defaultWorkerConcurrency = 1

func main() {
	now := flag.Bool("now", false, "enqueue one sweep and exit")
	force := flag.Bool("force", false, "with -now, refresh every industry regardless of next_update")
	flag.Parse()

	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *now {
		if _, err := worker.EnqueueSweep(ctx, cfg.RedisURL, *force); err != nil {
			log.Fatalf("enqueue sweep: %v", err)
		}
		return
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	if err := run(ctx, cfg, app.InsightsService, envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// run starts the sweep scheduler and task server and blocks until ctx ends.
func run(ctx context.Context, cfg config.Config, sweeper worker.Sweeper, concurrency int) error {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return errors.New("REDIS_URL is required")
	}

	srv, mux, err := worker.NewServer(worker.ServerConfig{RedisURL: cfg.RedisURL, Concurrency: concurrency}, sweeper)
	if err != nil {
		return err
	}

	stopScheduler, err := worker.StartScheduler(worker.SchedulerConfig{
		RedisURL: cfg.RedisURL,
		Schedule: cfg.InsightsSchedule,
		Timezone: cfg.InsightsTimezone,
	})
	if err != nil {
		return err
	}
	defer stopScheduler()

	if err := srv.Start(mux); err != nil {
		return err
	}
	telemetry.Info("worker.started", map[string]any{"concurrency": concurrency, "schedule": cfg.InsightsSchedule})

	<-ctx.Done()
	telemetry.Info("worker.shutdown", nil)
	srv.Shutdown()
	return nil
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
