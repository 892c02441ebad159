package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careercoach-backend/internal/llm"
	"careercoach-backend/internal/shared/telemetry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ErrTruncated means the model hit its token limit mid-answer, so the JSON is incomplete.
var ErrTruncated = errors.New("openai response truncated")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// System is sent ahead of every prompt when set.
	System string
}

// Client implements llm.Completer over Chat Completions in JSON mode.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	system     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		system:     strings.TrimSpace(cfg.System),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

type completionRequest struct {
	Model          string    `json:"model"`
	Messages       []message `json:"messages"`
	Temperature    *float64  `json:"temperature,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete returns the assistant message for prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var req completionRequest
	req.Model = c.model
	req.ResponseFormat.Type = "json_object"
	if c.system != "" {
		req.Messages = append(req.Messages, message{Role: "system", Content: c.system})
	}
	req.Messages = append(req.Messages, message{Role: "user", Content: prompt})
	// reasoning models only accept the default temperature
	if !fixedTemperature(c.model) {
		zero := 0.0
		req.Temperature = &zero
	}

	parsed, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	choice := parsed.Choices[0]
	telemetry.Info("llm.openai.usage", map[string]any{
		"model":             c.model,
		"prompt_tokens":     parsed.Usage.PromptTokens,
		"completion_tokens": parsed.Usage.CompletionTokens,
		"finish_reason":     choice.FinishReason,
	})
	switch {
	case choice.Message.Refusal != "":
		return "", fmt.Errorf("openai refused: %s", choice.Message.Refusal)
	case choice.FinishReason == "length":
		return "", ErrTruncated
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (completionResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return completionResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return completionResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completionResponse{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return completionResponse{}, fmt.Errorf("openai read: %w", err)
	}

	var parsed completionResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return completionResponse{}, &llm.StatusError{Provider: "openai", StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return completionResponse{}, fmt.Errorf("openai decode: %w", decodeErr)
	}
	return parsed, nil
}

func fixedTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "gpt-5") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4")
}

var _ llm.Completer = (*Client)(nil)
