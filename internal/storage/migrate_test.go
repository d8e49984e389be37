package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellviewer/internal/shared/testutil"
)

func TestMigrations(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "migrate.db")

	s, err := OpenSQLite(path, logger)
	require.NoError(t, err)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, s.MigrateUp(), "re-running up is a no-op")

	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, logger)
	require.NoError(t, err)
	defer reopened.Close()
	version, _, err = reopened.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
