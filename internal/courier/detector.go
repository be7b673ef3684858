package courier

import (
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

// Detect identifies the courier that sent req. It checks, in order, the
// X-Courier override header, a User-Agent substring, and finally the
// payload shape in the fixed order of domain.AllCouriers. It has no side
// effects.
func Detect(req Request) (domain.CourierCode, bool) {
	if code, ok := domain.ParseCourierCode(req.header(HeaderCourier)); ok {
		return code, true
	}

	if ua := strings.ToLower(req.userAgent()); ua != "" {
		for _, code := range domain.AllCouriers {
			if strings.Contains(ua, string(code)) {
				return code, true
			}
		}
	}

	doc, ok := decodeDocument(req.Body)
	if !ok {
		return "", false
	}
	for _, code := range domain.AllCouriers {
		p, _ := For(code)
		if p.matchesShape(doc) {
			return code, true
		}
	}
	return "", false
}
