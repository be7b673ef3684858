// Package httpretry retries outbound HTTP calls that fail transiently.
package httpretry

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// Doer sends one HTTP request. *http.Client and *Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resends a request after a network error or a 429/5xx gateway
// status, sleeping a jittered exponential backoff between attempts.
type Client struct {
	next    Doer
	retries int
	base    time.Duration
	max     time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithBackoff sets the first backoff step and its ceiling.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.base = base
		c.max = max
	}
}

// New wraps next. retries is the number of resends after the first attempt.
func New(next Doer, retries int, opts ...Option) *Client {
	c := &Client{next: next, retries: retries, base: 250 * time.Millisecond, max: 5 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req, resending it while attempts remain. The last response is
// returned unread even when its status is retryable.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: rewind body: %w", err)
				}
				req.Body = body
			}
			timer := time.NewTimer(c.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("httpretry: %w (last error: %v)", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		resp, err := c.next.Do(req)
		last := attempt >= c.retries
		switch {
		case err != nil:
			if last || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
		case !retryable(resp.StatusCode) || last:
			return resp, nil
		default:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		}
		logger.Warn("httpretry: retrying", "host", req.URL.Host, "attempt", attempt+1, "retries", c.retries, "error", lastErr)
	}
}

// backoff picks a delay in [step/2, step) where step doubles per attempt up
// to max.
func (c *Client) backoff(attempt int) time.Duration {
	step := c.base << (attempt - 1)
	if step <= 0 || step > c.max {
		step = c.max
	}
	half := step / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return code == http.StatusInternalServerError
}
