package luma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL     = "https://api.lumalabs.ai/dream-machine/v1"
	DefaultModel       = "ray-2"
	DefaultAspectRatio = "16:9"

	stateCompleted = "completed"
	stateFailed    = "failed"
)

// ErrGenerationFailed is returned when the provider reports a failed job.
var ErrGenerationFailed = errors.New("video generation failed")

// ErrTimeout is returned when a job does not finish within MaxWait.
var ErrTimeout = errors.New("video generation timed out")

// Config configures a video client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	AspectRatio  string
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Client submits text-to-video jobs and polls them to completion.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	aspectRatio  string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

// NewClient constructs a client. APIKey is required.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("VIDEO_API_KEY is required")
	}
	c := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:        strings.TrimSpace(cfg.Model),
		aspectRatio:  strings.TrimSpace(cfg.AspectRatio),
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.aspectRatio == "" {
		c.aspectRatio = DefaultAspectRatio
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 5 * time.Second
	}
	if c.maxWait <= 0 {
		c.maxWait = 5 * time.Minute
	}
	return c, nil
}

type createRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Model       string `json:"model,omitempty"`
}

type generation struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	FailureReason string `json:"failure_reason"`
	Assets        struct {
		Video string `json:"video"`
	} `json:"assets"`
}

// Generate submits prompt and blocks until the job completes, fails, or
// MaxWait elapses. It returns the video URL.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	var job generation
	if err := c.do(ctx, http.MethodPost, "/generations", createRequest{
		Prompt:      prompt,
		AspectRatio: c.aspectRatio,
		Model:       c.model,
	}, &job); err != nil {
		return "", c.wrapCtx(ctx, err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("luma: submit returned no generation id")
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		switch job.State {
		case stateCompleted:
			if job.Assets.Video == "" {
				return "", fmt.Errorf("luma %s: completed without video asset", job.ID)
			}
			return job.Assets.Video, nil
		case stateFailed:
			return "", fmt.Errorf("%w: %s", ErrGenerationFailed, job.FailureReason)
		}

		select {
		case <-ctx.Done():
			return "", c.wrapCtx(ctx, ctx.Err())
		case <-ticker.C:
		}

		id := job.ID
		if err := c.do(ctx, http.MethodGet, "/generations/"+url.PathEscape(id), nil, &job); err != nil {
			return "", c.wrapCtx(ctx, err)
		}
		if job.ID == "" {
			job.ID = id
		}
	}
}

func (c *Client) wrapCtx(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, c.maxWait, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("luma %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("luma %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("luma %s %s: decode: %w", method, path, err)
	}
	return nil
}
