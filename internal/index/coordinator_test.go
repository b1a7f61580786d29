package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernvale/notedex/internal/tagindex"
	"github.com/fernvale/notedex/internal/watcher"
)

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newCoordinator(t *testing.T, root string, opts Options) *Coordinator {
	t.Helper()
	opts.VaultRoot = root
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresVaultRoot(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestCoordinator_Rebuild_IndexesVault(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [javascript, react]\n---\n")
	writeNote(t, root, "b.md", "---\ntags: [javascript]\n---\n")
	writeNote(t, root, "untagged.md", "# nothing here\n")

	c := newCoordinator(t, root, Options{})
	require.NoError(t, c.Rebuild(context.Background()))

	assert.True(t, c.IsBuilt())
	assert.Equal(t, []string{"javascript", "react"}, c.TagsForFile("a.md"))
	assert.ElementsMatch(t, []string{"a.md", "b.md"}, c.FilesForTag("javascript"))
	assert.Nil(t, c.TagsForFile("untagged.md"))

	meta := c.Meta()
	assert.Equal(t, 2, meta.FileCount)
	assert.Equal(t, 2, meta.TagCount)
	assert.False(t, meta.LastIndexed.IsZero())
}

func TestCoordinator_Open_RebuildsWhenNothingPersisted(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [go]\n---\n")

	c := newCoordinator(t, root, Options{})
	require.NoError(t, c.Open(context.Background()))

	assert.Equal(t, []string{"a.md"}, c.FilesForTag("go"))
}

func TestCoordinator_Open_LoadsFreshPersistedIndex(t *testing.T) {
	root := t.TempDir()
	statePath := filepath.Join(root, ".notedex", "index.db")
	writeNote(t, root, "a.md", "---\ntags: [go]\n---\n")

	first := newCoordinator(t, root, Options{StatePath: statePath})
	require.NoError(t, first.Rebuild(context.Background()))
	persistedMeta := first.Meta()
	require.NoError(t, first.Close())

	// Change the vault after persisting. A fresh record is trusted as-is,
	// so the second coordinator must not see the new note.
	writeNote(t, root, "later.md", "---\ntags: [later]\n---\n")

	second := newCoordinator(t, root, Options{StatePath: statePath})
	require.NoError(t, second.Open(context.Background()))

	assert.Equal(t, []string{"a.md"}, second.FilesForTag("go"))
	assert.Nil(t, second.FilesForTag("later"))
	assert.True(t, persistedMeta.LastIndexed.Equal(second.Meta().LastIndexed))
}

func TestCoordinator_Open_RebuildsStaleIndex(t *testing.T) {
	root := t.TempDir()
	statePath := filepath.Join(root, ".notedex", "index.db")
	writeNote(t, root, "a.md", "---\ntags: [go]\n---\n")

	first := newCoordinator(t, root, Options{StatePath: statePath, MaxAge: time.Nanosecond})
	require.NoError(t, first.Rebuild(context.Background()))
	require.NoError(t, first.Close())

	writeNote(t, root, "later.md", "---\ntags: [later]\n---\n")
	time.Sleep(10 * time.Millisecond)

	second := newCoordinator(t, root, Options{StatePath: statePath, MaxAge: time.Nanosecond})
	require.NoError(t, second.Open(context.Background()))

	// The stale record triggered a rescan, so the new note is indexed.
	assert.Equal(t, []string{"later.md"}, second.FilesForTag("later"))
}

func TestCoordinator_ApplyEvents_FoldsBatchIntoIndex(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [go]\n---\n")

	c := newCoordinator(t, root, Options{})
	require.NoError(t, c.Rebuild(context.Background()))

	writeNote(t, root, "b.md", "---\ntags: [go, fresh]\n---\n")
	require.NoError(t, os.Remove(filepath.Join(root, "a.md")))

	c.ApplyEvents(context.Background(), []watcher.FileEvent{
		{Path: "b.md", Operation: watcher.OpCreate},
		{Path: "a.md", Operation: watcher.OpDelete},
	})

	assert.Equal(t, []string{"b.md"}, c.FilesForTag("go"))
	assert.Equal(t, []string{"b.md"}, c.FilesForTag("fresh"))
	assert.Nil(t, c.TagsForFile("a.md"))
}

func TestCoordinator_ApplyEvents_ModifyReReadsTags(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [old]\n---\n")

	c := newCoordinator(t, root, Options{})
	require.NoError(t, c.Rebuild(context.Background()))

	writeNote(t, root, "a.md", "---\ntags: [renewed]\n---\n")
	c.ApplyEvents(context.Background(), []watcher.FileEvent{
		{Path: "a.md", Operation: watcher.OpModify},
	})

	assert.Nil(t, c.FilesForTag("old"))
	assert.Equal(t, []string{"a.md"}, c.FilesForTag("renewed"))
}

func TestCoordinator_UpdateRemoveRename(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [keep]\n---\n")

	c := newCoordinator(t, root, Options{})
	ctx := context.Background()

	c.UpdateFile(ctx, "a.md")
	assert.Equal(t, []string{"a.md"}, c.FilesForTag("keep"))

	c.RenameFile(ctx, "a.md", "moved/a.md")
	assert.Equal(t, []string{"moved/a.md"}, c.FilesForTag("keep"))
	assert.Nil(t, c.TagsForFile("a.md"))

	c.RemoveFile(ctx, "moved/a.md")
	assert.False(t, c.IsBuilt())
}

func TestCoordinator_Search_RanksAndCaps(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [javascript, java]\n---\n")
	writeNote(t, root, "b.md", "---\ntags: [javascript, json]\n---\n")

	c := newCoordinator(t, root, Options{MaxResults: 1})
	require.NoError(t, c.Rebuild(context.Background()))

	matches := c.Search("java")
	require.Len(t, matches, 1)
	assert.Contains(t, []string{"javascript", "java"}, matches[0].Tag)

	assert.Empty(t, c.Search(""))
}

func TestCoordinator_Reset_ClearsMemoryAndRecord(t *testing.T) {
	root := t.TempDir()
	statePath := filepath.Join(root, ".notedex", "index.db")
	writeNote(t, root, "a.md", "---\ntags: [go]\n---\n")

	c := newCoordinator(t, root, Options{StatePath: statePath})
	ctx := context.Background()
	require.NoError(t, c.Rebuild(ctx))
	require.True(t, c.IsBuilt())

	c.Reset(ctx)

	assert.False(t, c.IsBuilt())
	assert.Empty(t, c.AllTags())
	require.NoError(t, c.Close())

	// A fresh coordinator finds no persisted record and must rescan.
	again := newCoordinator(t, root, Options{StatePath: statePath})
	require.NoError(t, again.Open(ctx))
	assert.Equal(t, []string{"a.md"}, again.FilesForTag("go"))
}

func TestCoordinator_SubscribeSeesMutations(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [go]\n---\n")

	c := newCoordinator(t, root, Options{})

	var events []tagindex.Event
	unsubscribe := c.Subscribe(func(e tagindex.Event) { events = append(events, e) })
	defer unsubscribe()

	c.UpdateFile(context.Background(), "a.md")

	require.Len(t, events, 1)
	assert.Equal(t, tagindex.EventUpdate, events[0].Kind)
	assert.Equal(t, "a.md", events[0].Path)
}
