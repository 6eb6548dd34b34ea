package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/migrations"
)

func TestPending(t *testing.T) {
	files := fstest.MapFS{
		"002_orders.sql":  {Data: []byte("SELECT 1;")},
		"001_init.sql":    {Data: []byte("SELECT 1;")},
		"999_reset.sql":   {Data: []byte("DROP TABLE x;")},
		"README.md":       {Data: []byte("docs")},
		"003_indexes.sql": {Data: []byte("SELECT 1;")},
	}

	got, err := Pending(files, map[string]bool{"002_orders.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "003_indexes.sql"}, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := Pending(migrations.FS, nil)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, []string{"001_init.sql", "002_online_payments.sql"}, got)
}
