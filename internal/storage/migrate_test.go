package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// An unregistered database scheme fails inside migrate.New, before any
// connection is attempted, so these run without a database.
func TestRunMigrationsRejectsUnknownDatabaseScheme(t *testing.T) {
	err := RunMigrations("bogus://localhost/reputation", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migrate instance")
}

func TestMigrationVersionRejectsUnknownDatabaseScheme(t *testing.T) {
	_, _, err := MigrationVersion("bogus://localhost/reputation", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migrate instance")
}
