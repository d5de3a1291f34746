package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/tiket?sslmode=disable", MigrateURL("postgres://u:p@localhost:5432/tiket?sslmode=disable"))
	require.Equal(t, "pgx5://localhost/tiket", MigrateURL("postgresql://localhost/tiket"))
	require.Equal(t, "pgx5://already", MigrateURL("pgx5://already"))
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFS, "migrations/*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	require.Len(t, downs, len(ups))
}
