package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/pkg/config"
)

func TestDriverName(t *testing.T) {
	assert.Equal(t, DriverPGX, DriverName("pgx"))
	assert.Equal(t, DriverPQ, DriverName("postgres"))
	assert.Equal(t, DriverPQ, DriverName(""))
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "market", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=market sslmode=disable", dsn)
}

func TestEmbeddedMigrationsCoverSchema(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := fs.ReadFile(migrations, "migrations/"+entries[0].Name())
	require.NoError(t, err)
	schema := string(raw)
	for _, table := range []string{"users", "clubs", "events", "ideas", "votes", "halls", "super_admin_requests", "notifications", "achievements", "event_registrations"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
	assert.Contains(t, schema, "UNIQUE (user_id, idea_id)")
}
