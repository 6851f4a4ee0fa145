package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/database"
)

func openSQLite(t *testing.T) *database.Connections {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "kusina.db")
	conns, err := database.Open(config.Database{Driver: "sqlite", WriterDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })
	return conns
}

func tableExists(t *testing.T, conns *database.Connections, name string) bool {
	t.Helper()
	var count int
	err := conns.Writer.NewRaw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).
		Scan(context.Background(), &count)
	require.NoError(t, err)
	return count == 1
}

func TestUpDownRoundTrip(t *testing.T) {
	ctx := context.Background()
	conns := openSQLite(t)

	m, err := New("sqlite3", conns, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))
	assert.True(t, tableExists(t, conns, "menu"))
	assert.True(t, tableExists(t, conns, "orders"))

	// Re-running is a no-op.
	require.NoError(t, m.Up(ctx))

	require.NoError(t, m.Down(ctx, 1, false))
	assert.True(t, tableExists(t, conns, "menu"))
	assert.False(t, tableExists(t, conns, "orders"))

	require.NoError(t, m.Down(ctx, 0, true))
	assert.False(t, tableExists(t, conns, "menu"))
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string][2]string{
		"sqlite":   {"sqlite3", "sqlite"},
		"postgres": {"postgres", "postgres"},
		"pgx":      {"postgres", "postgres"},
		"mysql":    {"mysql", "mysql"},
	} {
		dialect, dir, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want[0], dialect)
		assert.Equal(t, want[1], dir)
	}

	_, _, err := gooseDialect("oracle")
	assert.Error(t, err)
}
