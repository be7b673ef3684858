package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/courier-webhooks/internal/domain"
)

const (
	subjectTemplate = `{% if new_status == "delivered" %}Your order has been delivered{% elsif new_status == "exception" %}There is a problem with your delivery{% else %}Your order is {{ new_status_label }}{% endif %}`

	bodyTemplate = `<p>Hi {{ customer_name | default: "there" | escape }},</p>
<p>Your order from {{ merchant_name | default: "our store" | escape }} ({{ tracking_number | escape }}) with {{ courier_name | escape }} is now <strong>{{ new_status_label | escape }}</strong>.</p>
{% if exception_reason != "" %}<p>Reason: {{ exception_reason | escape }}</p>
{% endif %}{% if new_eta != "" %}<p>Estimated delivery: {{ new_eta | escape }}</p>
{% endif %}{% if actual_delivery != "" %}<p>Delivered at: {{ actual_delivery | escape }}</p>
{% endif %}`
)

// renderer compiles the notification templates once and reuses them.
type renderer struct {
	once    sync.Once
	err     error
	subject *liquid.Template
	body    *liquid.Template
}

func (r *renderer) init() error {
	r.once.Do(func() {
		engine := liquid.NewEngine()
		var err error
		if r.subject, err = engine.ParseString(subjectTemplate); err != nil {
			r.err = fmt.Errorf("parse subject template: %w", err)
			return
		}
		if r.body, err = engine.ParseString(bodyTemplate); err != nil {
			r.err = fmt.Errorf("parse body template: %w", err)
		}
	})
	return r.err
}

// render returns the email subject and HTML body for n.
func (r *renderer) render(n domain.StatusNotification) (string, string, error) {
	if err := r.init(); err != nil {
		return "", "", err
	}
	bindings := map[string]interface{}{
		"customer_name":    n.Recipients.CustomerName,
		"merchant_name":    n.Recipients.MerchantName,
		"courier_name":     n.CourierName,
		"tracking_number":  n.TrackingNumber,
		"new_status":       string(n.NewStatus),
		"new_status_label": strings.ReplaceAll(string(n.NewStatus), "_", " "),
		"exception_reason": n.ExceptionReason,
		"new_eta":          formatTime(n.NewETA),
		"actual_delivery":  formatTime(n.ActualDelivery),
	}
	subject, err := r.subject.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	body, err := r.body.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(subject), body, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
