// Package httputil provides shared HTTP response helpers for handlers.
//
// Handlers use these helpers instead of raw http.ResponseWriter calls so
// JSON formatting and the webhook status mapping stay consistent.
package httputil
