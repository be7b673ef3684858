package reconcile

import (
	"math"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
)

// earlyThreshold is how far ahead of the ETA a delivery must land to count
// as early. The boundary is inclusive.
const earlyThreshold = 24 * time.Hour

// ClassifyOTD classifies delivery timeliness. Anything other than a
// delivered order with both timestamps is unknown.
func ClassifyOTD(status domain.OrderStatus, eta, actual *time.Time) domain.OTDStatus {
	if status != domain.StatusDelivered || eta == nil || actual == nil {
		return domain.OTDUnknown
	}
	if actual.After(*eta) {
		return domain.OTDDelayed
	}
	if eta.Sub(*actual) >= earlyThreshold {
		return domain.OTDEarly
	}
	return domain.OTDOnTime
}

// deliveryHours is |actual - eta| in hours, or nil without an ETA.
func deliveryHours(eta *time.Time, actual time.Time) *float64 {
	if eta == nil {
		return nil
	}
	h := math.Abs(actual.Sub(*eta).Hours())
	h = math.Round(h*100) / 100
	return &h
}
