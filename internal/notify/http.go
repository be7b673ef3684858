package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/httpretry"
)

// HTTPNotifier posts notifications as JSON to the notification service.
type HTTPNotifier struct {
	url    string
	apiKey string
	client httpretry.Doer
}

// NewHTTPNotifier creates an HTTP dispatcher. Transient failures are retried
// by httpretry; the caller's context still bounds the whole exchange.
func NewHTTPNotifier(url, apiKey string, timeout time.Duration, maxRetries int, opts ...httpretry.Option) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPNotifier{
		url:    url,
		apiKey: apiKey,
		client: httpretry.New(&http.Client{Timeout: timeout}, maxRetries, opts...),
	}
}

func (h *HTTPNotifier) Notify(ctx context.Context, n domain.StatusNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification service returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
