// Package reconcile applies canonical courier events to persisted orders.
//
// The Engine is the only writer of courier tracking state on an order. For
// each event it performs one locked read-modify-write: the order update, the
// tracking-event row and the dedupe receipt commit in a single transaction.
// Everything after that commit (tracking cache, courier performance, audit
// log, payload archive, notification) is best-effort and bounded by its own
// timeout; a failure there is logged and counted but never changes the
// result.
//
// Repository implementations live in repository/postgres/ and cache/.
package reconcile
