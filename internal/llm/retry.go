package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"careercoach-backend/internal/shared/telemetry"
)

const defaultRetryDelay = 300 * time.Millisecond

type retrying struct {
	base  Completer
	delay time.Duration
}

// WithRetry retries a transient failure exactly once after delay.
// A zero delay uses the default.
func WithRetry(base Completer, delay time.Duration) Completer {
	if base == nil {
		return nil
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return retrying{base: base, delay: delay}
}

func (r retrying) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := r.base.Complete(ctx, prompt)
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return out, err
	}

	telemetry.Warn("llm.retry", map[string]any{"attempt": 1, "error": err})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return r.base.Complete(ctx, prompt)
}

// IsTransient reports whether err is worth one more attempt: timeouts,
// rate limiting, 5xx responses and dropped connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}
