// Package discord delivers messages to a Discord-compatible webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxErrorBodyBytes caps how much of a failure response body is captured
// for logging.
const maxErrorBodyBytes = 2048

// Webhook posts message text to a webhook URL as {"content": "..."}.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// New builds a Webhook notifier.
func New(url string, timeout time.Duration, logger *zap.Logger) *Webhook {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type payload struct {
	Content string `json:"content"`
}

// Send posts one message. Non-2xx responses are reported as errors carrying
// the status code and (truncated) response body; callers decide whether the
// failure is fatal.
func (w *Webhook) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(payload{Content: text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	w.logger.Debug("Webhook message delivered", zap.Int("chars", len(text)))
	return nil
}
