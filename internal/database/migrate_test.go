package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/courier-webhooks/migrations"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Errorf("migration %s is neither up nor down", n)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestSchemaDeclaresWebhookTables(t *testing.T) {
	b, err := fs.ReadFile(migrations.FS, "000001_courier_tracking.up.sql")
	require.NoError(t, err)
	schema := string(b)
	for _, table := range []string{
		"order_tracking_events", "courier_webhook_receipts", "courier_performance",
		"courier_metrics", "api_audit_log",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema, "raw_payload      BYTEA")
}

func TestWithConnectTimeout(t *testing.T) {
	assert.Equal(t, "postgres://h/db?connect_timeout=5", withConnectTimeout("postgres://h/db"))
	assert.Equal(t, "postgres://h/db?sslmode=disable&connect_timeout=5", withConnectTimeout("postgres://h/db?sslmode=disable"))
	assert.Equal(t, "postgres://h/db?connect_timeout=1", withConnectTimeout("postgres://h/db?connect_timeout=1"))
	assert.Equal(t, "postgresql://h/db?connect_timeout=5", withConnectTimeout("postgresql://h/db"))
}

func TestWithConnectTimeout_KeyValueDSN(t *testing.T) {
	assert.Equal(t, "host=h dbname=db sslmode=disable connect_timeout=5",
		withConnectTimeout("host=h dbname=db sslmode=disable"))
	assert.Equal(t, "host=h connect_timeout=5", withConnectTimeout("host=h "))
	assert.Equal(t, "host=h connect_timeout=2", withConnectTimeout("host=h connect_timeout=2"))

	// The result must still parse as a key=value connection string.
	_, err := pq.NewConnector(withConnectTimeout("host=h dbname=db user=u"))
	assert.NoError(t, err)
}
