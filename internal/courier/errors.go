package courier

import (
	"errors"
	"fmt"
)

// Sentinel errors for request classification. All of them reject a request
// before any persistence happens.
var (
	ErrUnknownCourier       = errors.New("unknown courier")
	ErrAuthenticationFailed = errors.New("webhook authentication failed")
	ErrMalformedPayload     = errors.New("malformed payload")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}
