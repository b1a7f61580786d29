package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fernvale/notedex/internal/ignore"
	"github.com/fernvale/notedex/internal/scanner"
)

// VaultWatcher watches a vault directory tree with fsnotify and emits
// debounced batches of note events.
type VaultWatcher struct {
	fsWatcher      *fsnotify.Watcher
	debouncer      *Debouncer
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	ignore         *ignore.Matcher
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// NewVaultWatcher creates a watcher with the given options.
func NewVaultWatcher(opts Options) (*VaultWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &VaultWatcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}, nil
}

// Start begins watching the vault rooted at path. It blocks until the
// context is cancelled or Stop is called.
func (w *VaultWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.rootPath = absPath

	matcher, err := ignore.Load(absPath)
	if err != nil {
		slog.Warn("ignore_file_unreadable", slog.Any("error", err))
		matcher = ignore.New()
	}
	w.ignore = matcher

	if err := w.addRecursive(absPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	go w.forwardDebouncedEvents(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handleFsnotifyEvent converts and filters a raw fsnotify event.
func (w *VaultWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	isDir := false
	if info, statErr := os.Stat(event.Name); statErr == nil {
		isDir = info.IsDir()
	}

	if w.shouldIgnore(relPath, isDir) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		// New directories must join the watch set.
		if isDir {
			_ = w.fsWatcher.Add(event.Name)
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		// fsnotify reports a rename on the old path only; the new path
		// arrives as a separate CREATE. Treat the old path as gone.
		op = OpRename
	default:
		// Chmod and other noise.
		return
	}

	if isDir && op != OpDelete && op != OpRename {
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      filepath.ToSlash(relPath),
		Operation: op,
		Timestamp: time.Now(),
	})
}

// forwardDebouncedEvents forwards debounced batches to the output channel.
func (w *VaultWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			w.emitEvents(events)
		}
	}
}

// addRecursive adds all non-excluded directories under root to the watch set.
func (w *VaultWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't access
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return w.fsWatcher.Add(path)
		}
		if w.isExcludedDir(relPath) {
			return filepath.SkipDir
		}
		if w.ignore != nil && w.ignore.Match(filepath.ToSlash(relPath), true) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// isExcludedDir checks a directory against the built-in and configured
// exclusions.
func (w *VaultWatcher) isExcludedDir(relPath string) bool {
	for _, name := range alwaysExcludedDirs {
		if relPath == name || strings.HasPrefix(relPath, name+string(filepath.Separator)) {
			return true
		}
	}
	for _, pattern := range w.opts.ExcludePatterns {
		if matchExclude(relPath, pattern) {
			return true
		}
	}
	return false
}

// shouldIgnore returns true for events outside the watched note set.
func (w *VaultWatcher) shouldIgnore(relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" {
		return true
	}
	if w.isExcludedDir(relPath) {
		return true
	}
	if w.ignore != nil && w.ignore.Match(filepath.ToSlash(relPath), isDir) {
		return true
	}
	if isDir {
		return false
	}
	// Deletes and renames carry no extension information worth trusting,
	// but note files are recognizable by name alone.
	return !scanner.IsNoteFile(relPath, w.opts.Extensions)
}

// matchExclude matches a relative path against one exclude pattern, using
// the same pattern forms the scanner accepts.
func matchExclude(relPath, pattern string) bool {
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		suffix = strings.TrimSuffix(suffix, "/**")
		for _, part := range strings.Split(relPath, string(filepath.Separator)) {
			if part == suffix {
				return true
			}
		}
		return false
	}
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return relPath == prefix || strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}
	return relPath == pattern || strings.HasPrefix(relPath, pattern+string(filepath.Separator))
}

// emitEvents sends a batch to the output channel without blocking.
func (w *VaultWatcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case w.events <- events:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event_buffer_full",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count))
	}
}

// DroppedBatches returns the number of batches dropped due to buffer overflow.
func (w *VaultWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// emitError sends an error to the error channel without blocking.
func (w *VaultWatcher) emitError(err error) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (w *VaultWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	_ = w.fsWatcher.Close()

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of batched note events.
func (w *VaultWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *VaultWatcher) Errors() <-chan error {
	return w.errors
}

// RootPath returns the vault root being watched.
func (w *VaultWatcher) RootPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rootPath
}

// alwaysExcludedDirs never generate events, whatever the configuration.
var alwaysExcludedDirs = []string{".git", ".obsidian", ".trash", ".notedex", "node_modules"}
