package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/insights"
	"careercoach-backend/internal/worker"
)

type recordingSweeper struct {
	opts []insights.SweepOptions
	err  error
}

func (r *recordingSweeper) Sweep(ctx context.Context, opts insights.SweepOptions) (insights.SweepReport, error) {
	r.opts = append(r.opts, opts)
	return insights.SweepReport{Checked: 2, Refreshed: 1}, r.err
}

func TestHandleEventScheduledDetail(t *testing.T) {
	sweeper := &recordingSweeper{}
	report, err := handleEvent(context.Background(), sweeper, events.CloudWatchEvent{
		ID:     "evt-1",
		Source: "aws.events",
		Detail: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Refreshed)
	require.Len(t, sweeper.opts, 1)
	assert.False(t, sweeper.opts[0].Force)
}

func TestHandleEventForce(t *testing.T) {
	sweeper := &recordingSweeper{}
	_, err := handleEvent(context.Background(), sweeper, events.CloudWatchEvent{Detail: json.RawMessage(`{"force":true}`)})
	require.NoError(t, err)
	require.Len(t, sweeper.opts, 1)
	assert.True(t, sweeper.opts[0].Force)
}

func TestHandleEventDropsBadDetail(t *testing.T) {
	sweeper := &recordingSweeper{}
	_, err := handleEvent(context.Background(), sweeper, events.CloudWatchEvent{Detail: json.RawMessage(`{"force":"yes"}`)})
	assert.NoError(t, err)
	assert.Empty(t, sweeper.opts)
}

func TestHandleEventReturnsSweepFailure(t *testing.T) {
	sweeper := &recordingSweeper{err: errors.New("provider down")}
	_, err := handleEvent(context.Background(), sweeper, events.CloudWatchEvent{Detail: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestLazySweeperRetriesFailedBuild(t *testing.T) {
	builds := 0
	sweeper := &recordingSweeper{}
	l := &lazySweeper{build: func() (worker.Sweeper, error) {
		builds++
		if builds == 1 {
			return nil, errors.New("database unreachable")
		}
		return sweeper, nil
	}}
	event := events.CloudWatchEvent{ID: "evt-2", Detail: json.RawMessage(`{}`)}

	_, err := l.handle(context.Background(), event)
	require.Error(t, err)
	assert.Empty(t, sweeper.opts)

	_, err = l.handle(context.Background(), event)
	require.NoError(t, err)
	_, err = l.handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 2, builds)
	assert.Len(t, sweeper.opts, 2)
}
