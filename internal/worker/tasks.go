package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"careercoach-backend/internal/insights"
	"careercoach-backend/internal/shared/telemetry"
)

// TaskInsightsSweep refreshes due industry insights.
const TaskInsightsSweep = "insights:sweep"

// Sweeper runs one insights sweep.
type Sweeper interface {
	Sweep(ctx context.Context, opts insights.SweepOptions) (insights.SweepReport, error)
}

// NewSweepTask builds the periodic sweep task. Unique keeps a double-fired
// schedule from running two sweeps at once.
func NewSweepTask(force bool) (*asynq.Task, error) {
	var payload []byte
	if force {
		raw, err := json.Marshal(SweepPayload{Force: true})
		if err != nil {
			return nil, err
		}
		payload = raw
	}
	return asynq.NewTask(
		TaskInsightsSweep,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour),
	), nil
}

// RunSweep decodes body and runs the sweep. Decode failures are wrapped in
// ErrDecode so callers can drop the trigger instead of retrying it.
func RunSweep(ctx context.Context, sweeper Sweeper, body []byte) (insights.SweepReport, error) {
	if sweeper == nil {
		return insights.SweepReport{}, errors.New("insights sweeper not configured")
	}
	payload, meta, err := ParseSweepPayload(body)
	if err != nil {
		telemetry.Error("worker.sweep.decode_failed", map[string]any{
			"body_len":    meta.BodyLen,
			"body_sha256": meta.BodySHA,
			"error":       err,
		})
		return insights.SweepReport{}, err
	}

	telemetry.Info("worker.sweep.started", map[string]any{"force": payload.Force})
	report, err := sweeper.Sweep(ctx, insights.SweepOptions{Force: payload.Force})
	if err != nil {
		telemetry.Error("worker.sweep.failed", map[string]any{
			"refreshed": report.Refreshed,
			"failed":    report.Failed,
			"error":     err,
		})
		return report, err
	}
	telemetry.Info("worker.sweep.completed", map[string]any{
		"checked":   report.Checked,
		"refreshed": report.Refreshed,
		"skipped":   report.Skipped,
	})
	return report, nil
}

// HandleSweep adapts RunSweep to an asynq handler. A failed sweep is retried;
// rows refreshed by the failed attempt are no longer due and are skipped.
func HandleSweep(sweeper Sweeper) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		_, err := RunSweep(ctx, sweeper, task.Payload())
		var decodeErr ErrDecode
		if errors.As(err, &decodeErr) {
			return fmt.Errorf("%w: %w", decodeErr, asynq.SkipRetry)
		}
		return err
	}
}
