package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add allocation index", "add_allocation_index"},
		{"Add-Allocation-Index", "add_allocation_index"},
		{"ADD__DOCUMENT__KIND", "add_document_kind"},
		{"Documents 2", "documents_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create settlement tables", "documents and allocation records")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_settlement_tables.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_settlement_tables.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "create settlement tables")
	assert.Contains(t, string(up), "documents and allocation records")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback: create settlement tables")

	second, err := CreateMigration(dir, "add-record-index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("lists up files in version order", func(t *testing.T) {
		dir := t.TempDir()
		for _, f := range []string{
			"000002_b.up.sql", "000002_b.down.sql",
			"000001_a.up.sql", "000001_a.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_a", "000002_b"}, names)
		assert.Equal(t, 3, nextVersion(names))
	})
}

func TestRepositoryMigrations(t *testing.T) {
	names, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, n := range names {
		_, err := os.Stat(filepath.Join("..", "..", "..", "migrations", n+downSuffix))
		assert.NoError(t, err, "missing down migration for %s", n)
	}
}
