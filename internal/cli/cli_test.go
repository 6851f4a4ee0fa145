package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kitchenEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_WRITER_DSN", "file:"+filepath.Join(t.TempDir(), "kusina.db"))
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("OBS_ENABLE_METRICS", "false")
	t.Setenv("OBS_LOG_LEVEL", "error")
	t.Setenv("KITCHEN_TIMEZONE", "UTC")
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()), "kusina %v", args)
	return out.String()
}

func TestKitchenCommands(t *testing.T) {
	kitchenEnv(t)

	assert.Contains(t, run(t, "menu", "add", "--name", "Chicken Adobo", "--price", "150", "--category", "Main"), "Chicken Adobo (Main) ₱150.00")
	run(t, "menu", "add", "--name", "Rice", "--price", "25", "--category", "Sides")

	menu := run(t, "menu", "list")
	assert.Contains(t, menu, "Chicken Adobo")
	assert.Contains(t, menu, "Rice")

	placed := run(t, "orders", "place", "--customer", "Maria Santos", "--item", "Chicken Adobo:1", "--item", "Rice:2")
	assert.Contains(t, placed, "Maria Santos: Chicken Adobo x1, Rice x2, ₱200.00 (1 waiting)")

	assert.Contains(t, run(t, "orders", "pending"), "Maria Santos")
	assert.Contains(t, run(t, "orders", "complete"), "served #1 for Maria Santos")
	assert.Contains(t, run(t, "orders", "complete"), "no pending orders")
	assert.Contains(t, run(t, "orders", "history"), "completed")
	assert.Contains(t, run(t, "stats", "today"), "1 orders, revenue ₱200.00")
}

func TestMigrateAndSeed(t *testing.T) {
	kitchenEnv(t)
	t.Setenv("DB_AUTO_MIGRATE", "false")

	assert.Contains(t, run(t, "migrate", "up"), "migrations applied")
	assert.Contains(t, run(t, "seed"), "seed data applied")
	assert.Contains(t, run(t, "orders", "pending"), "Eulin Ryan Bertrand")
	assert.Contains(t, run(t, "migrate", "down", "--all"), "migrations rolled back")
}

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"Rice:2", "Iced Tea", "Sinigang na Spaghetti : 1"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Rice", items[0].Name)
	assert.Equal(t, 2, items[0].Qty)
	assert.Equal(t, 1, items[1].Qty)
	assert.Equal(t, "Sinigang na Spaghetti", items[2].Name)

	_, err = parseItems([]string{"Rice:two"})
	assert.Error(t, err)
}
