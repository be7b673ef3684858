package reconcile

import "errors"

// Sentinel errors for the reconciliation layer.
var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrPersistence    = errors.New("persistence failure")
	ErrDuplicateEvent = errors.New("event already applied")
	ErrLockTimeout    = errors.New("timed out waiting for order lock")
)
