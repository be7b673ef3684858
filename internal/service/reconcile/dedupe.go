package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
)

// DedupeKey identifies one courier event for at-most-once application.
func DedupeKey(ev domain.CanonicalEvent) string {
	parts := []string{
		ev.TrackingNumber,
		string(ev.CourierCode),
		ev.EventTimestamp.UTC().Format(time.RFC3339Nano),
		strings.ToUpper(strings.TrimSpace(ev.ProviderStatus)),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
