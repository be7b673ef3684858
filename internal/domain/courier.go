package domain

import "strings"

// CourierCode identifies a courier provider. The set is closed: every switch
// over CourierCode is expected to handle all of AllCouriers.
type CourierCode string

const (
	CourierPostNord CourierCode = "postnord"
	CourierBring    CourierCode = "bring"
	CourierBudbee   CourierCode = "budbee"
	CourierDHL      CourierCode = "dhl"
)

// AllCouriers lists every supported courier in detection order.
var AllCouriers = []CourierCode{CourierPostNord, CourierBring, CourierBudbee, CourierDHL}

// ParseCourierCode normalizes a header or config value into a CourierCode.
func ParseCourierCode(s string) (CourierCode, bool) {
	switch CourierCode(strings.ToLower(strings.TrimSpace(s))) {
	case CourierPostNord:
		return CourierPostNord, true
	case CourierBring:
		return CourierBring, true
	case CourierBudbee:
		return CourierBudbee, true
	case CourierDHL:
		return CourierDHL, true
	}
	return "", false
}

// DisplayName returns the provider's brand name.
func (c CourierCode) DisplayName() string {
	switch c {
	case CourierPostNord:
		return "PostNord"
	case CourierBring:
		return "Bring"
	case CourierBudbee:
		return "Budbee"
	case CourierDHL:
		return "DHL"
	}
	return string(c)
}
