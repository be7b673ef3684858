package reconcile

import (
	"testing"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestClassifyOTD(t *testing.T) {
	eta := ts("2025-11-10T18:00:00Z")
	tests := []struct {
		name   string
		status domain.OrderStatus
		eta    *time.Time
		actual *time.Time
		want   domain.OTDStatus
	}{
		{"not delivered", domain.StatusInTransit, eta, ts("2025-11-10T10:00:00Z"), domain.OTDUnknown},
		{"early", domain.StatusDelivered, eta, ts("2025-11-09T18:00:00Z"), domain.OTDEarly},
		{"on time", domain.StatusDelivered, eta, ts("2025-11-10T10:00:00Z"), domain.OTDOnTime},
		{"delayed", domain.StatusDelivered, eta, ts("2025-11-11T08:00:00Z"), domain.OTDDelayed},
		{"exactly at eta", domain.StatusDelivered, eta, ts("2025-11-10T18:00:00Z"), domain.OTDOnTime},
		{"just under a day early", domain.StatusDelivered, eta, ts("2025-11-09T18:00:01Z"), domain.OTDOnTime},
		{"missing eta", domain.StatusDelivered, nil, ts("2025-11-10T10:00:00Z"), domain.OTDUnknown},
		{"missing actual", domain.StatusDelivered, eta, nil, domain.OTDUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyOTD(tt.status, tt.eta, tt.actual); got != tt.want {
				t.Errorf("ClassifyOTD() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnifiedStatus_IsTotal(t *testing.T) {
	for _, code := range domain.AllCouriers {
		for _, s := range []string{"", "WHATEVER", "unknown_code"} {
			if got := UnifiedStatus(code, s); got != domain.StatusPending {
				t.Errorf("UnifiedStatus(%s, %q) = %s, want pending", code, s, got)
			}
		}
	}
	if got := UnifiedStatus("ups", "DELIVERED"); got != domain.StatusPending {
		t.Errorf("unknown courier should map to pending, got %s", got)
	}
}

func TestUnifiedStatus_Mappings(t *testing.T) {
	cases := []struct {
		code   domain.CourierCode
		status string
		want   domain.OrderStatus
	}{
		{domain.CourierPostNord, "ARRIVED_AT_DELIVERY_POINT", domain.StatusOutForDelivery},
		{domain.CourierPostNord, "STOPPED", domain.StatusException},
		{domain.CourierPostNord, "INFORMED", domain.StatusPending},
		{domain.CourierBring, "READY_FOR_PICKUP", domain.StatusReadyForPickup},
		{domain.CourierBudbee, "PICKED_UP", domain.StatusPickedUp},
		{domain.CourierDHL, "transit", domain.StatusInTransit},
		{domain.CourierDHL, "DELIVERED", domain.StatusDelivered},
	}
	for _, c := range cases {
		if got := UnifiedStatus(c.code, c.status); got != c.want {
			t.Errorf("UnifiedStatus(%s, %s) = %s, want %s", c.code, c.status, got, c.want)
		}
	}
}

func TestDedupeKey(t *testing.T) {
	base := domain.CanonicalEvent{
		CourierCode:    domain.CourierBring,
		TrackingNumber: "707",
		EventTimestamp: time.Date(2025, 11, 10, 14, 30, 0, 0, time.UTC),
		ProviderStatus: "DELIVERED",
	}
	same := base
	same.EventTimestamp = base.EventTimestamp.In(time.FixedZone("CET", 3600))
	same.ProviderStatus = "delivered"
	same.Description = "different text"
	if DedupeKey(base) != DedupeKey(same) {
		t.Error("expected equal keys for the same logical event")
	}

	other := base
	other.ProviderStatus = "IN_TRANSIT"
	if DedupeKey(base) == DedupeKey(other) {
		t.Error("expected different keys for different statuses")
	}
}
