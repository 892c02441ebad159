package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestInfoWritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(newLogger(&buf, "info", "json"))
	t.Cleanup(func() { SetLogger(prev) })

	Info("generation.complete", map[string]any{
		"user_id": "u-1",
		"cost":    5,
		"err":     errors.New("boom"),
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "generation.complete" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Fatalf("level = %v", entry["level"])
	}
	if entry["user_id"] != "u-1" {
		t.Fatalf("user_id = %v", entry["user_id"])
	}
	if entry["err"] != "boom" {
		t.Fatalf("err = %v, want flattened error string", entry["err"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(newLogger(&buf, "warn", "text"))
	t.Cleanup(func() { SetLogger(prev) })

	Info("dropped", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	Warn("kept", nil)
	if buf.Len() == 0 {
		t.Fatalf("expected warn line")
	}
}

func TestRequestIDRoundTripsThroughContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestID(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
