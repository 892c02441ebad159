package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"careercoach-backend/internal/shared/telemetry"
)

// EnqueueSweep queues an immediate sweep. It reports false without error when
// an identical sweep is already pending.
func EnqueueSweep(ctx context.Context, redisURL string, force bool) (bool, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return false, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := asynq.NewClient(redisOpt)
	defer client.Close()
	return enqueueSweep(ctx, client, force)
}

func enqueueSweep(ctx context.Context, client *asynq.Client, force bool) (bool, error) {
	task, err := NewSweepTask(force)
	if err != nil {
		return false, err
	}
	info, err := client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		telemetry.Info("worker.sweep.already_queued", map[string]any{"force": force})
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enqueue sweep: %w", err)
	}
	telemetry.Info("worker.sweep.enqueued", map[string]any{"task_id": info.ID, "queue": info.Queue, "force": force})
	return true, nil
}
