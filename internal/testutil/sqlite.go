// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/internal/database"
	"github.com/Additional-Code/kusina/internal/migration"
)

// OpenSQLite returns connections to a fresh, fully migrated sqlite file under t.TempDir().
func OpenSQLite(t testing.TB) *database.Connections {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "kusina.db")
	conns, err := database.Open(config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	m, err := migration.New("sqlite", conns, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up(context.Background()))

	return conns
}
