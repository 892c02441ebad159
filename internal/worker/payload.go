package worker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// SweepPayload is the body of a sweep trigger. An empty body means a
// scheduled run with default options.
type SweepPayload struct {
	Force bool `json:"force"`
}

// MessageMeta captures details useful for logging a payload.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body []byte) MessageMeta {
	if len(body) == 0 {
		return MessageMeta{}
	}
	sum := sha256.Sum256(body)
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrDecode indicates a payload that is not valid JSON for SweepPayload.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode sweep payload"
	}
	return "decode sweep payload: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ParseSweepPayload decodes a trigger body.
func ParseSweepPayload(body []byte) (SweepPayload, MessageMeta, error) {
	meta := ComputeMeta(body)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return SweepPayload{}, meta, nil
	}
	var p SweepPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return SweepPayload{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	return p, meta, nil
}
