package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/insights"
)

type fakeSweeper struct {
	opts   []insights.SweepOptions
	report insights.SweepReport
	err    error
}

func (f *fakeSweeper) Sweep(ctx context.Context, opts insights.SweepOptions) (insights.SweepReport, error) {
	f.opts = append(f.opts, opts)
	return f.report, f.err
}

func TestParseSweepPayload(t *testing.T) {
	for _, tc := range []struct {
		name  string
		body  string
		force bool
		err   bool
	}{
		{name: "empty", body: "", force: false},
		{name: "null", body: "null", force: false},
		{name: "force", body: `{"force":true}`, force: true},
		{name: "unrelated fields", body: `{"source":"eventbridge"}`, force: false},
		{name: "garbage", body: `{force`, err: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, meta, err := ParseSweepPayload([]byte(tc.body))
			if tc.err {
				var decodeErr ErrDecode
				require.True(t, errors.As(err, &decodeErr))
				assert.Equal(t, len(tc.body), decodeErr.Meta.BodyLen)
				assert.NotEmpty(t, meta.BodySHA)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.force, p.Force)
		})
	}
}

func TestNewSweepTask(t *testing.T) {
	task, err := NewSweepTask(false)
	require.NoError(t, err)
	assert.Equal(t, TaskInsightsSweep, task.Type())
	assert.Empty(t, task.Payload())

	forced, err := NewSweepTask(true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"force":true}`, string(forced.Payload()))
}

func TestHandleSweepPassesForce(t *testing.T) {
	sweeper := &fakeSweeper{report: insights.SweepReport{Refreshed: 2}}
	task, err := NewSweepTask(true)
	require.NoError(t, err)

	require.NoError(t, HandleSweep(sweeper)(context.Background(), task))
	require.Len(t, sweeper.opts, 1)
	assert.True(t, sweeper.opts[0].Force)
}

func TestHandleSweepRetriesOnSweepFailure(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("tech: provider down")}
	task, err := NewSweepTask(false)
	require.NoError(t, err)

	err = HandleSweep(sweeper)(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleSweepSkipsRetryOnBadPayload(t *testing.T) {
	sweeper := &fakeSweeper{}
	task := asynq.NewTask(TaskInsightsSweep, []byte("{oops"))

	err := HandleSweep(sweeper)(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, sweeper.opts)
}

func TestRunSweepWithoutSweeper(t *testing.T) {
	_, err := RunSweep(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestEnqueueSweepDeduplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer client.Close()

	ok, err := enqueueSweep(context.Background(), client, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = enqueueSweep(context.Background(), client, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnqueueSweepRejectsBadURL(t *testing.T) {
	_, err := EnqueueSweep(context.Background(), "http://not-redis", false)
	assert.Error(t, err)
}
