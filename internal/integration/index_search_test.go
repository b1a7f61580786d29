// Package integration exercises the full pipeline: scan a real vault on
// disk, build the index, persist it, and search it.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernvale/notedex/internal/index"
	"github.com/fernvale/notedex/internal/scanner"
)

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeNote(t, root, "langs/go.md", "---\ntags: [golang, compilers]\n---\n# Go\n")
	writeNote(t, root, "langs/js.md", "---\ntags: [javascript]\n---\n# JS\n")
	writeNote(t, root, "daily/2026-08-23.md", "---\ntags: [journal, golang]\n---\n# Today\n")
	writeNote(t, root, "untagged.md", "# Nothing here\n")
	return root
}

func newCoordinator(t *testing.T, root string) *index.Coordinator {
	t.Helper()
	coord, err := index.New(index.Options{
		VaultRoot: root,
		StatePath: filepath.Join(root, ".notedex", "index.db"),
		Scan:      scanner.ScanOptions{Workers: 2},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })
	return coord
}

func TestIndexThenSearch_EndToEnd(t *testing.T) {
	// Given: a vault on disk
	root := newVault(t)
	ctx := context.Background()

	// When: building the index and searching
	coord := newCoordinator(t, root)
	require.NoError(t, coord.Rebuild(ctx))

	matches := coord.Search("gol")

	// Then: golang matches with both its notes counted
	require.NotEmpty(t, matches)
	assert.Equal(t, "golang", matches[0].Tag)
	assert.Equal(t, 2, matches[0].Count)

	files := coord.FilesForTag("golang")
	assert.ElementsMatch(t, []string{"langs/go.md", "daily/2026-08-23.md"}, files)
}

func TestIndexPersistence_SurvivesRestart(t *testing.T) {
	// Given: a vault indexed by one coordinator
	root := newVault(t)
	ctx := context.Background()

	first := newCoordinator(t, root)
	require.NoError(t, first.Rebuild(ctx))
	firstMeta := first.Meta()
	require.NoError(t, first.Close())

	// When: a second coordinator opens the same vault
	second := newCoordinator(t, root)
	require.NoError(t, second.Open(ctx))

	// Then: the persisted index is served without a rescan
	meta := second.Meta()
	assert.Equal(t, firstMeta.FileCount, meta.FileCount)
	assert.Equal(t, firstMeta.TagCount, meta.TagCount)
	assert.True(t, firstMeta.LastIndexed.Equal(meta.LastIndexed),
		"LastIndexed should survive the restart")

	matches := second.Search("journal")
	require.NotEmpty(t, matches)
	assert.Equal(t, "journal", matches[0].Tag)
}

func TestIncrementalUpdate_ReflectsEdits(t *testing.T) {
	// Given: an indexed vault
	root := newVault(t)
	ctx := context.Background()
	coord := newCoordinator(t, root)
	require.NoError(t, coord.Rebuild(ctx))

	// When: a note gains a tag and another is deleted
	writeNote(t, root, "langs/js.md", "---\ntags: [javascript, frontend]\n---\n# JS\n")
	coord.UpdateFile(ctx, "langs/js.md")

	require.NoError(t, os.Remove(filepath.Join(root, "untagged.md")))
	coord.RemoveFile(ctx, "untagged.md")

	// Then: the index reflects both changes
	assert.ElementsMatch(t, []string{"javascript", "frontend"}, coord.TagsForFile("langs/js.md"))
	assert.Empty(t, coord.TagsForFile("untagged.md"))

	// And: a fresh coordinator sees the persisted update
	require.NoError(t, coord.Close())
	reopened := newCoordinator(t, root)
	require.NoError(t, reopened.Open(ctx))
	assert.Contains(t, reopened.FilesForTag("frontend"), "langs/js.md")
}

func TestStaleIndex_TriggersRescan(t *testing.T) {
	// Given: a persisted index older than the freshness window
	root := newVault(t)
	ctx := context.Background()

	first := newCoordinator(t, root)
	require.NoError(t, first.Rebuild(ctx))
	require.NoError(t, first.Close())

	// A note added after persisting would be invisible without a rescan.
	writeNote(t, root, "new.md", "---\ntags: [fresh]\n---\n# New\n")
	time.Sleep(10 * time.Millisecond)

	second, err := index.New(index.Options{
		VaultRoot: root,
		StatePath: filepath.Join(root, ".notedex", "index.db"),
		MaxAge:    time.Nanosecond,
		Scan:      scanner.ScanOptions{Workers: 2},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	// When: opening with the stale record
	require.NoError(t, second.Open(ctx))

	// Then: the rescan picked up the new note
	assert.Contains(t, second.FilesForTag("fresh"), "new.md")
}
