package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernvale/notedex/internal/config"
)

func TestInitCmd_WritesTemplate(t *testing.T) {
	// Given: an empty directory
	dir := t.TempDir()

	// When: running init
	output, err := execute(t, "init", dir)

	// Then: a parseable vault config exists
	require.NoError(t, err)
	assert.Contains(t, output, ".notedex.yaml")

	path := filepath.Join(dir, ".notedex.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_age")

	// And: the generated config loads and validates
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "24h", cfg.Index.MaxAge)
}

func TestInitCmd_RefusesOverwrite(t *testing.T) {
	// Given: a directory that already has a vault config
	dir := t.TempDir()
	path := filepath.Join(dir, ".notedex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: running init without --force
	_, err := execute(t, "init", dir)

	// Then: the existing file is kept
	require.Error(t, err)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	// Given: a directory with a stale vault config
	dir := t.TempDir()
	path := filepath.Join(dir, ".notedex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: running init with --force
	_, err := execute(t, "init", dir, "--force")

	// Then: the template replaced it
	require.NoError(t, err)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "debounce")
}

func TestInitCmd_MarksVaultForDiscovery(t *testing.T) {
	// Given: an initialized vault with a nested directory
	dir := t.TempDir()
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	nested := filepath.Join(dir, "projects", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// When: discovering the vault root from the nested directory
	root, err := config.FindVaultRoot(nested)

	// Then: the initialized directory is found
	require.NoError(t, err)
	resolvedDir, _ := filepath.EvalSymlinks(dir)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, resolvedDir, resolvedRoot)
}
