package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"add inventory items table": "add_inventory_items_table",
		"Add-Inventory-Items":       "add_inventory_items",
		"ADD_OUTBOX_EVENTS":         "add_outbox_events",
		"add__outbox__events":       "add_outbox_events",
		"Add Ledger 123":            "add_ledger_123",
		"create-purchase-orders":    "create_purchase_orders",
		"   spaces   ":              "spaces",
		"special!@#$chars":          "specialchars",
		"trailing_":                 "trailing",
		"_leading":                  "leading",
		"":                          "",
	}
	for input, want := range cases {
		assert.Equal(t, want, sanitizeName(input), "input %q", input)
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "add reorder point", "Add reorder_point column to inventory_items")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14, "version is a YYYYMMDDHHMMSS stamp")
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase, "up and down share a base name")
	assert.True(t, strings.HasSuffix(upBase, "_add_reorder_point"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add reorder point")
	assert.Contains(t, string(up), "Add reorder_point column to inventory_items")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
	assert.Contains(t, string(down), "Write your DOWN migration SQL here")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init ledger", "initial schema")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000003_add_outbox_events.up.sql",
		"000003_add_outbox_events.down.sql",
		"000001_init_schema.up.sql",
		"000001_init_schema.down.sql",
		"000002_add_purchase_orders.up.sql",
		"000002_add_purchase_orders.down.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- sql"), 0644))
	}

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_init_schema",
		"000002_add_purchase_orders",
		"000003_add_outbox_events",
	}, migrations, "pairs are listed once, in version order")
}

func TestListMigrations_EmptyOrMissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, migrations)

	migrations, err = ListMigrations(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrations_SkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		"config.yaml",
		".gitkeep",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init"}, migrations)
}
