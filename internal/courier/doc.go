// Package courier holds everything that is specific to one delivery
// provider: request authentication, payload detection, and translation of
// provider payloads into domain.CanonicalEvent.
//
// The set of providers is closed. Provider has unexported methods so only
// this package can implement it, and For switches over every
// domain.CourierCode.
package courier
