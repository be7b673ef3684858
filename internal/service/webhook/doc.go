// Package webhook routes inbound courier webhooks through detection,
// authentication, parsing and reconciliation.
//
// The Router is the fault boundary of the pipeline: it never returns an
// error or panics, every outcome is a domain.WebhookResult. Nothing is
// written before an event has been detected, authenticated and parsed.
package webhook
