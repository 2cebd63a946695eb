package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient POSTs JSON event payloads to a configured endpoint,
// wrapped in a circuit breaker so a dead endpoint does not stall the
// worker pool.
type WebhookClient struct {
	url    string
	client *http.Client
	cb     *CircuitBreaker
}

func NewWebhookClient(url string, cb *CircuitBreaker) *WebhookClient {
	return &WebhookClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		cb:     cb,
	}
}

// Configured reports whether an endpoint URL was provided. When it
// wasn't, event jobs are dropped instead of failing.
func (w *WebhookClient) Configured() bool { return w.url != "" }

// State exposes the circuit breaker state for health reporting.
func (w *WebhookClient) State() CBState { return w.cb.State() }

// Post delivers one event payload. A non-2xx response counts as a
// failure toward tripping the breaker.
func (w *WebhookClient) Post(ctx context.Context, body []byte) error {
	return w.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook: endpoint returned %d", resp.StatusCode)
		}
		return nil
	})
}
