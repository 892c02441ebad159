package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"careercoach-backend/internal/shared/telemetry"
)

// SchedulerConfig configures the periodic sweep.
type SchedulerConfig struct {
	RedisURL string
	Schedule string
	Timezone string
}

// StartScheduler registers the weekly sweep and starts the scheduler.
// The returned func stops it.
func StartScheduler(cfg SchedulerConfig) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		telemetry.Warn("worker.scheduler.invalid_timezone", map[string]any{
			"timezone": cfg.Timezone,
			"error":    err,
		})
		location = time.UTC
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: location,
		LogLevel: asynq.InfoLevel,
		Logger:   newAsynqLogger(telemetry.Logger()),
	})

	task, err := NewSweepTask(false)
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cfg.Schedule, task)
	if err != nil {
		return nil, fmt.Errorf("register sweep schedule %q: %w", cfg.Schedule, err)
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	telemetry.Info("worker.scheduler.started", map[string]any{
		"schedule": cfg.Schedule,
		"timezone": location.String(),
		"entry_id": entryID,
	})
	return func() { scheduler.Shutdown() }, nil
}
