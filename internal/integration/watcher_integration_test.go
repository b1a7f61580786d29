package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernvale/notedex/internal/watcher"
)

// waitForBatch blocks until the watcher delivers a batch or the timeout hits.
func waitForBatch(t *testing.T, w *watcher.VaultWatcher, timeout time.Duration) []watcher.FileEvent {
	t.Helper()
	select {
	case batch := <-w.Events():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for watcher events")
		return nil
	}
}

func TestWatcherToIndex_LiveUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watcher integration test in short mode")
	}

	// Given: an indexed vault under watch
	root := newVault(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := newCoordinator(t, root)
	require.NoError(t, coord.Rebuild(ctx))

	w, err := watcher.NewVaultWatcher(watcher.Options{
		DebounceWindow: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	started := make(chan error, 1)
	go func() { started <- w.Start(ctx, root) }()
	defer func() { _ = w.Stop() }()

	// fsnotify needs a moment to register the directory tree.
	time.Sleep(100 * time.Millisecond)

	// When: a new tagged note appears
	writeNote(t, root, "ideas.md", "---\ntags: [ideas]\n---\n# Ideas\n")

	batch := waitForBatch(t, w, 2*time.Second)
	coord.ApplyEvents(ctx, batch)

	// Then: the index knows the new tag
	assert.Contains(t, coord.FilesForTag("ideas"), "ideas.md")

	// When: the note is deleted
	require.NoError(t, os.Remove(filepath.Join(root, "ideas.md")))

	batch = waitForBatch(t, w, 2*time.Second)
	coord.ApplyEvents(ctx, batch)

	// Then: the tag disappears with its last note
	assert.Empty(t, coord.FilesForTag("ideas"))

	cancel()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not shut down")
	}
}

func TestWatcherRename_MovesNote(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watcher integration test in short mode")
	}

	// Given: an indexed vault under watch
	root := newVault(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := newCoordinator(t, root)
	require.NoError(t, coord.Rebuild(ctx))

	w, err := watcher.NewVaultWatcher(watcher.Options{
		DebounceWindow: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	go func() { _ = w.Start(ctx, root) }()
	defer func() { _ = w.Stop() }()
	time.Sleep(100 * time.Millisecond)

	// When: a note is renamed on disk
	oldPath := filepath.Join(root, "langs", "go.md")
	newPath := filepath.Join(root, "langs", "golang.md")
	require.NoError(t, os.Rename(oldPath, newPath))

	// The rename arrives as a remove of the old path and a create of the
	// new one, possibly split across batches.
	deadline := time.After(3 * time.Second)
	for !contains(coord.FilesForTag("golang"), "langs/golang.md") ||
		contains(coord.FilesForTag("golang"), "langs/go.md") {
		select {
		case batch := <-w.Events():
			coord.ApplyEvents(ctx, batch)
		case <-deadline:
			t.Fatalf("rename never reflected in index; files=%v", coord.FilesForTag("golang"))
		}
	}

	assert.Contains(t, coord.FilesForTag("golang"), "langs/golang.md")
	assert.NotContains(t, coord.FilesForTag("golang"), "langs/go.md")
}

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}
