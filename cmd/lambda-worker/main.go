package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker
//
// Triggered by an EventBridge schedule. A {"force": true} detail refreshes every industry.

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"careercoach-backend/internal/bootstrap"
	"careercoach-backend/internal/insights"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/worker"
)

// lazySweeper builds the app on the first invocation and retries the build
// on later invocations if it failed.
type lazySweeper struct {
	build func() (worker.Sweeper, error)

	mu      sync.Mutex
	sweeper worker.Sweeper
}

func (l *lazySweeper) get() (worker.Sweeper, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sweeper != nil {
		return l.sweeper, nil
	}
	s, err := l.build()
	if err != nil {
		return nil, err
	}
	l.sweeper = s
	return s, nil
}

func (l *lazySweeper) handle(ctx context.Context, event events.CloudWatchEvent) (insights.SweepReport, error) {
	sweeper, err := l.get()
	if err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"event_id": event.ID, "error": err})
		return insights.SweepReport{}, err
	}
	return handleEvent(ctx, sweeper, event)
}

func buildSweeper() (worker.Sweeper, error) {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, cfg.LogFormat)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return nil, err
	}
	if app.InsightsService == nil {
		return nil, errors.New("insights service not configured")
	}
	return app.InsightsService, nil
}

// handleEvent runs one sweep. Undecodable details are dropped so the
// invocation is not retried forever.
func handleEvent(ctx context.Context, sweeper worker.Sweeper, event events.CloudWatchEvent) (insights.SweepReport, error) {
	telemetry.Info("lambda.sweep.triggered", map[string]any{"event_id": event.ID, "source": event.Source})
	report, err := worker.RunSweep(ctx, sweeper, event.Detail)
	var decodeErr worker.ErrDecode
	if errors.As(err, &decodeErr) {
		return report, nil
	}
	return report, err
}

func main() {
	l := &lazySweeper{build: buildSweeper}
	lambda.Start(l.handle)
}
