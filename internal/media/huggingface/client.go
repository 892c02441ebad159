package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	defaultMime    = "image/jpeg"

	// images above this size are rejected rather than buffered.
	maxImageBytes = 20 << 20
)

// Image is the raw output of a text-to-image call.
type Image struct {
	Bytes    []byte
	MimeType string
}

// StatusError reports a non-2xx inference response.
type StatusError struct {
	Model      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("huggingface %s: status %d: %s", e.Model, e.StatusCode, e.Body)
}

// Client calls the Hugging Face inference router.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. An empty baseURL uses the public router.
func NewClient(token, baseURL string, timeout time.Duration) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("HUGGING_FACE_TOKEN is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{token: token, baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}, nil
}

// Generate renders prompt with model and returns the image bytes.
func (c *Client) Generate(ctx context.Context, model, prompt string) (Image, error) {
	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return Image{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+strings.TrimPrefix(model, "/"), bytes.NewReader(body))
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-use-cache", "false")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("huggingface %s: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Image{}, &StatusError{Model: model, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("huggingface %s: read body: %w", model, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("huggingface %s: empty image", model)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("huggingface %s: image exceeds %d bytes", model, maxImageBytes)
	}
	return Image{Bytes: data, MimeType: imageMime(resp.Header.Get("Content-Type"))}, nil
}

func imageMime(header string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return defaultMime
	}
	return mediaType
}
