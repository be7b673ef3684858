// Package notify delivers order status-change notifications.
//
// Dispatchers are selected by configuration: an HTTP notification service,
// email through SES, an SQS queue for asynchronous consumers, or any
// combination. Every dispatcher returns an error on failure; callers decide
// whether that is fatal.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/courier-webhooks/internal/config"
	"github.com/ignite/courier-webhooks/internal/domain"
)

// Notifier delivers one status-change notification.
type Notifier interface {
	Notify(ctx context.Context, n domain.StatusNotification) error
}

// Multi fans a notification out to several dispatchers. Every dispatcher is
// attempted; the joined error reports those that failed.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n domain.StatusNotification) error {
	var errs []error
	for _, d := range m {
		if err := d.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the dispatcher for cfg.Mode, a comma-separated list of
// "http", "ses" and "sqs". "none" or an empty mode returns nil, which
// disables notifications.
func New(ctx context.Context, cfg config.NotificationConfig) (Notifier, error) {
	var out Multi
	for _, mode := range strings.Split(cfg.Mode, ",") {
		switch strings.ToLower(strings.TrimSpace(mode)) {
		case "", "none":
		case "http":
			if cfg.URL == "" {
				return nil, fmt.Errorf("notification mode http requires notification.url")
			}
			out = append(out, NewHTTPNotifier(cfg.URL, cfg.APIKey, cfg.Timeout(), cfg.MaxRetries))
		case "ses":
			n, err := NewSESNotifier(ctx, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		case "sqs":
			n, err := NewSQSNotifier(ctx, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		default:
			return nil, fmt.Errorf("unknown notification mode %q", mode)
		}
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
