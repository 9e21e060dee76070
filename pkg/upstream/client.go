// Package upstream calls the chat-completions API that produces reports.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/reportrelay/pkg/llm"
)

// Config is the upstream API configuration.
type Config struct {
	// URL of the chat completions endpoint.
	URL string

	// APIKey is sent verbatim in the Authorization header. An empty key is
	// sent as-is and left for the upstream to reject.
	APIKey string

	// Model is the upstream model or endpoint identifier.
	Model string

	// Timeout for a single call. Zero means no client-side timeout.
	Timeout time.Duration
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("AI API request failed with status %d: %s", e.StatusCode, e.Body)
}

// ErrNoContent is returned when a successful response carries no completion text.
var ErrNoContent = errors.New("AI API response has no message content")

// Client performs single-attempt completion calls.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// NewClient creates a new Client.
func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Complete sends req upstream and returns the first choice's message content.
// The request is never streamed and never retried.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (string, error) {
	req.Stream = false
	if req.Model == "" {
		req.Model = c.config.Model
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("forwarding request to upstream",
		zap.String("url", c.config.URL),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return "", &StatusError{StatusCode: httpResp.StatusCode, Body: string(body)}
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", ErrNoContent
	}

	content := *resp.Choices[0].Message.Content
	c.logger.Debug("received response from upstream",
		zap.String("model", resp.Model),
		zap.Int("content_length", len(content)),
		zap.Duration("duration", time.Since(start)),
	)

	return content, nil
}
