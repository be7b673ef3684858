// Package migrations embeds the SQL schema migrations applied by
// cmd/migrate and, optionally, at server start.
package migrations

import "embed"

// FS holds the numbered up/down migration files.
//
//go:embed *.sql
var FS embed.FS
