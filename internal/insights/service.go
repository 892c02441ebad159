package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"careercoach-backend/internal/llm"
	"careercoach-backend/internal/shared/metrics"
	"careercoach-backend/internal/shared/telemetry"
)

const (
	DefaultTTL        = 7 * 24 * time.Hour
	DefaultSweepGrace = time.Hour
)

// Config controls refresh scheduling.
type Config struct {
	// TTL is how far ahead next_update is set after a generation.
	TTL time.Duration
	// SweepGrace lets a sweep refresh rows that fall due shortly after it runs.
	SweepGrace time.Duration
}

// IndustryLookup resolves a user's industry. An empty result means the
// user has not onboarded.
type IndustryLookup interface {
	Industry(ctx context.Context, userID string) (string, error)
}

// Service serves cached industry insights and refreshes them.
type Service struct {
	Repo  Repo
	LLM   llm.Completer
	Users IndustryLookup

	cfg   Config
	group singleflight.Group
	now   func() time.Time
}

func NewService(repo Repo, completer llm.Completer, lookup IndustryLookup, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepGrace < 0 {
		cfg.SweepGrace = 0
	}
	return &Service{
		Repo:  repo,
		LLM:   completer,
		Users: lookup,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the insights for the user's industry, generating them on a miss.
// A cached row is returned as is; freshness is the sweep's job.
func (s *Service) Get(ctx context.Context, userID string) (Insights, error) {
	if s.Users == nil {
		return Insights{}, errors.New("missing dependencies")
	}
	industry, err := s.Users.Industry(ctx, userID)
	if err != nil {
		return Insights{}, err
	}
	if strings.TrimSpace(industry) == "" {
		return Insights{}, ErrNotOnboarded
	}
	return s.Ensure(ctx, industry)
}

// Ensure returns the cached row for industry, generating and storing it on a
// miss. Concurrent misses for the same industry share one provider call.
func (s *Service) Ensure(ctx context.Context, industry string) (Insights, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return Insights{}, fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}
	if s == nil || s.Repo == nil || s.LLM == nil {
		return Insights{}, errors.New("missing dependencies")
	}

	row, err := s.Repo.Get(ctx, industry)
	if err == nil {
		metrics.IncInsights("hit")
		return row, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Insights{}, err
	}

	// The shared call must outlive any single waiter giving up.
	ch := s.group.DoChan(industry, func() (any, error) {
		return s.createMissing(context.WithoutCancel(ctx), industry)
	})
	select {
	case <-ctx.Done():
		return Insights{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Insights{}, res.Err
		}
		return res.Val.(Insights), nil
	}
}

func (s *Service) createMissing(ctx context.Context, industry string) (Insights, error) {
	// A previous flight may have stored the row while this one was queued.
	if row, err := s.Repo.Get(ctx, industry); err == nil {
		metrics.IncInsights("hit")
		return row, nil
	}
	metrics.IncInsights("miss")

	payload, err := s.generate(ctx, industry)
	if err != nil {
		return Insights{}, err
	}
	now := s.now()
	stored, err := s.Repo.CreateIfAbsent(ctx, Insights{
		Industry:    industry,
		Payload:     payload,
		LastUpdated: now,
		NextUpdate:  now.Add(s.cfg.TTL),
	})
	if err != nil {
		return Insights{}, fmt.Errorf("store insights %q: %w", industry, err)
	}
	telemetry.Info("insights.created", map[string]any{"industry": industry})
	return stored, nil
}

// Refresh regenerates insights for industry and overwrites the row.
func (s *Service) Refresh(ctx context.Context, industry string) (Insights, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return Insights{}, fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}
	payload, err := s.generate(ctx, industry)
	if err != nil {
		return Insights{}, err
	}
	now := s.now()
	row := Insights{
		Industry:    industry,
		Payload:     payload,
		LastUpdated: now,
		NextUpdate:  now.Add(s.cfg.TTL),
	}
	if err := s.Repo.Save(ctx, row); err != nil {
		return Insights{}, fmt.Errorf("save insights %q: %w", industry, err)
	}
	return row, nil
}

// SweepOptions controls a sweep run.
type SweepOptions struct {
	// Force refreshes every industry regardless of its next_update marker.
	Force bool
}

// SweepReport summarizes a sweep run.
type SweepReport struct {
	Checked   int      `json:"checked"`
	Refreshed int      `json:"refreshed"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed"`
}

// Sweep refreshes every due industry in turn. A failure on one industry does
// not stop the others; all failures are joined into the returned error.
func (s *Service) Sweep(ctx context.Context, opts SweepOptions) (SweepReport, error) {
	report := SweepReport{Failed: []string{}}
	markers, err := s.Repo.Markers(ctx)
	if err != nil {
		return report, fmt.Errorf("list industries: %w", err)
	}

	cutoff := s.now().Add(s.cfg.SweepGrace)
	var errs []error
	for _, m := range markers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report.Checked++
		if !opts.Force && m.NextUpdate.After(cutoff) {
			report.Skipped++
			continue
		}
		if _, err := s.Refresh(ctx, m.Industry); err != nil {
			report.Failed = append(report.Failed, m.Industry)
			errs = append(errs, fmt.Errorf("%s: %w", m.Industry, err))
			telemetry.Warn("insights.sweep_industry_failed", map[string]any{
				"industry": m.Industry,
				"error":    err,
			})
			continue
		}
		report.Refreshed++
	}

	metrics.ObserveSweep(report.Refreshed, len(report.Failed))
	telemetry.Info("insights.sweep_complete", map[string]any{
		"checked":   report.Checked,
		"refreshed": report.Refreshed,
		"skipped":   report.Skipped,
		"failed":    len(report.Failed),
		"force":     opts.Force,
	})
	return report, errors.Join(errs...)
}

func (s *Service) generate(ctx context.Context, industry string) (Payload, error) {
	start := time.Now()
	raw, err := s.LLM.Complete(ctx, Prompt(industry))
	latency := metrics.SinceMillis(start)
	metrics.ObserveProviderLatencyMs("llm", latency)
	if err != nil {
		metrics.IncProviderCall("llm", "error")
		metrics.IncInsights("provider_error")
		telemetry.Warn("insights.provider_failed", map[string]any{
			"industry":   industry,
			"latency_ms": latency,
			"error":      err,
		})
		return Payload{}, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	metrics.IncProviderCall("llm", "ok")

	res := Decode(raw)
	if !res.OK() {
		metrics.IncInsights("parse_error")
		telemetry.Warn("insights.parse_failed", map[string]any{
			"industry": industry,
			"stage":    res.Err.Stage,
			"error":    res.Err.Err,
		})
		return Payload{}, fmt.Errorf("%w: %w", ErrParse, res.Err)
	}
	return res.Payload, nil
}
