package reconcile

import (
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

// unifiedStatus maps (courier, provider status) to the order lifecycle.
// INFORMED, REGISTERED and CREATED are label-only events and keep the order
// pending. PostNord's NOTIFICATION_SENT means the recipient was told the
// parcel is on its way.
var unifiedStatus = map[domain.CourierCode]map[string]domain.OrderStatus{
	domain.CourierPostNord: {
		"INFORMED":                  domain.StatusPending,
		"COLLECTED":                 domain.StatusPickedUp,
		"IN_TRANSIT":                domain.StatusInTransit,
		"ARRIVED_AT_DELIVERY_POINT": domain.StatusOutForDelivery,
		"DELIVERED":                 domain.StatusDelivered,
		"RETURNED":                  domain.StatusReturned,
		"STOPPED":                   domain.StatusException,
		"NOTIFICATION_SENT":         domain.StatusInTransit,
		"READY_FOR_PICKUP":          domain.StatusReadyForPickup,
	},
	domain.CourierBring: {
		"REGISTERED":       domain.StatusPending,
		"COLLECTED":        domain.StatusPickedUp,
		"IN_TRANSIT":       domain.StatusInTransit,
		"DELIVERED":        domain.StatusDelivered,
		"RETURNED":         domain.StatusReturned,
		"EXCEPTION":        domain.StatusException,
		"READY_FOR_PICKUP": domain.StatusReadyForPickup,
	},
	domain.CourierBudbee: {
		"CREATED":          domain.StatusPending,
		"PICKED_UP":        domain.StatusPickedUp,
		"IN_TRANSIT":       domain.StatusInTransit,
		"OUT_FOR_DELIVERY": domain.StatusOutForDelivery,
		"DELIVERED":        domain.StatusDelivered,
		"EXCEPTION":        domain.StatusException,
	},
	domain.CourierDHL: {
		"TRANSIT":          domain.StatusInTransit,
		"DELIVERED":        domain.StatusDelivered,
		"EXCEPTION":        domain.StatusException,
		"RETURNED":         domain.StatusReturned,
		"OUT_FOR_DELIVERY": domain.StatusOutForDelivery,
	},
}

// UnifiedStatus returns the order status for a provider status. It is
// total: anything unmapped is pending.
func UnifiedStatus(code domain.CourierCode, providerStatus string) domain.OrderStatus {
	if s, ok := unifiedStatus[code][strings.ToUpper(strings.TrimSpace(providerStatus))]; ok {
		return s
	}
	return domain.StatusPending
}
