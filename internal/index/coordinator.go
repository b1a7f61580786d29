// Package index coordinates the tag index subsystem: the in-memory store,
// its durable record, the vault scanner, and the fuzzy search engine. The
// coordinator serializes access, so it is the only concurrency-safe entry
// point; the store underneath assumes a single caller.
package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	nxerrors "github.com/fernvale/notedex/internal/errors"
	"github.com/fernvale/notedex/internal/frontmatter"
	"github.com/fernvale/notedex/internal/scanner"
	"github.com/fernvale/notedex/internal/search"
	"github.com/fernvale/notedex/internal/store"
	"github.com/fernvale/notedex/internal/tagindex"
	"github.com/fernvale/notedex/internal/watcher"
)

// lockRetryDelay is how often a blocked rebuild re-attempts the vault lock.
const lockRetryDelay = 100 * time.Millisecond

// Options configures a Coordinator.
type Options struct {
	// VaultRoot is the vault root directory. Required.
	VaultRoot string

	// StatePath is the durable index database path. Empty means in-memory,
	// which keeps tests off the filesystem.
	StatePath string

	// MaxAge is the persisted-index staleness threshold (0 = 24h).
	MaxAge time.Duration

	// MaxResults caps search results (0 = unlimited).
	MaxResults int

	// Scan configures discovery and extraction.
	Scan scanner.ScanOptions
}

// Coordinator owns the tag index for one vault.
type Coordinator struct {
	mu      sync.RWMutex
	store   *tagindex.Store
	adapter *store.Adapter
	engine  *search.Engine
	scanner *scanner.Scanner
	opts    Options
}

// New creates a coordinator for the vault described by opts.
func New(opts Options) (*Coordinator, error) {
	if opts.VaultRoot == "" {
		return nil, nxerrors.ValidationError("vault root is required", nil)
	}
	opts.Scan.RootDir = opts.VaultRoot

	sc, err := scanner.New()
	if err != nil {
		return nil, nxerrors.New(nxerrors.ErrCodeInternal, "failed to create scanner", err)
	}

	adapter, err := store.Open(opts.StatePath)
	if err != nil {
		return nil, nxerrors.New(nxerrors.ErrCodeStorageOpen, "failed to open index store", err)
	}

	return &Coordinator{
		store:   tagindex.NewStore(),
		adapter: adapter,
		engine:  search.NewEngine(),
		scanner: sc,
		opts:    opts,
	}, nil
}

// Open loads the persisted index if it is present and fresh, and rebuilds
// from the vault otherwise.
func (c *Coordinator) Open(ctx context.Context) error {
	c.mu.Lock()
	idx, meta, ok := c.adapter.Load(ctx)
	if ok && !c.adapter.IsStale(c.opts.MaxAge) {
		c.store.ReplaceAll(idx)
		c.store.SetMeta(meta)
		c.engine.Build(c.store.AllTags())
		c.mu.Unlock()

		slog.Info("index_loaded",
			slog.Int("files", meta.FileCount),
			slog.Int("tags", meta.TagCount),
			slog.Time("last_indexed", meta.LastIndexed))
		return nil
	}
	c.mu.Unlock()

	if ok {
		slog.Info("index_stale", slog.Time("last_indexed", meta.LastIndexed))
	} else {
		slog.Info("index_absent")
	}
	return c.Rebuild(ctx)
}

// Rebuild scans the whole vault and replaces the index. A file lock keeps
// concurrent rebuilds from separate processes from racing each other.
func (c *Coordinator) Rebuild(ctx context.Context) error {
	unlock, err := c.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	started := time.Now()
	notes, err := c.scanner.Extract(ctx, &c.opts.Scan)
	if err != nil {
		return nxerrors.New(nxerrors.ErrCodeIndexFailed, "vault scan failed", err)
	}

	idx := tagindex.NewTagIndex()
	for _, note := range notes {
		if len(note.Tags) == 0 {
			continue
		}
		idx.Files[note.Path] = note.Tags
		for _, tag := range note.Tags {
			idx.Tags[tag] = append(idx.Tags[tag], note.Path)
		}
	}

	c.mu.Lock()
	c.store.ReplaceAll(idx)
	c.engine.Build(c.store.AllTags())
	snapshot, meta := c.store.Snapshot()
	c.mu.Unlock()

	c.persist(ctx, snapshot, meta)

	slog.Info("index_rebuilt",
		slog.Int("scanned", len(notes)),
		slog.Int("files", meta.FileCount),
		slog.Int("tags", meta.TagCount),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

// ApplyEvents folds a debounced batch of watcher events into the index and
// persists the result once per batch.
func (c *Coordinator) ApplyEvents(ctx context.Context, events []watcher.FileEvent) {
	if len(events) == 0 {
		return
	}

	c.mu.Lock()
	for _, ev := range events {
		switch ev.Operation {
		case watcher.OpCreate, watcher.OpModify:
			c.scanner.Invalidate(ev.Path)
			c.store.UpdateFile(ev.Path, c.readTags(ev.Path))
		case watcher.OpDelete, watcher.OpRename:
			// A rename reaches us as RENAME on the old path plus CREATE on
			// the new one, so the old path is simply gone.
			c.scanner.Invalidate(ev.Path)
			c.store.RemoveFile(ev.Path)
		}
	}
	c.engine.Build(c.store.AllTags())
	snapshot, meta := c.store.Snapshot()
	c.mu.Unlock()

	c.persist(ctx, snapshot, meta)

	slog.Debug("index_events_applied",
		slog.Int("batch_size", len(events)),
		slog.Int("files", meta.FileCount),
		slog.Int("tags", meta.TagCount))
}

// UpdateFile re-extracts one note and folds it into the index. Intended for
// editor integrations that know exactly which note changed.
func (c *Coordinator) UpdateFile(ctx context.Context, relPath string) {
	relPath = filepath.ToSlash(relPath)

	c.mu.Lock()
	c.scanner.Invalidate(relPath)
	c.store.UpdateFile(relPath, c.readTags(relPath))
	c.engine.Build(c.store.AllTags())
	snapshot, meta := c.store.Snapshot()
	c.mu.Unlock()

	c.persist(ctx, snapshot, meta)
}

// RemoveFile drops one note from the index.
func (c *Coordinator) RemoveFile(ctx context.Context, relPath string) {
	relPath = filepath.ToSlash(relPath)

	c.mu.Lock()
	c.scanner.Invalidate(relPath)
	c.store.RemoveFile(relPath)
	c.engine.Build(c.store.AllTags())
	snapshot, meta := c.store.Snapshot()
	c.mu.Unlock()

	c.persist(ctx, snapshot, meta)
}

// RenameFile moves one note's index entry without re-reading the file.
func (c *Coordinator) RenameFile(ctx context.Context, oldPath, newPath string) {
	oldPath = filepath.ToSlash(oldPath)
	newPath = filepath.ToSlash(newPath)

	c.mu.Lock()
	c.scanner.Invalidate(oldPath)
	c.store.RenameFile(oldPath, newPath)
	c.engine.Build(c.store.AllTags())
	snapshot, meta := c.store.Snapshot()
	c.mu.Unlock()

	c.persist(ctx, snapshot, meta)
}

// Reset clears the in-memory index and the durable record.
func (c *Coordinator) Reset(ctx context.Context) {
	c.mu.Lock()
	c.store.Reset()
	c.engine.Build(nil)
	c.scanner.InvalidateCache()
	c.mu.Unlock()

	c.adapter.Clear(ctx)
}

// Search returns ranked fuzzy matches for query, capped at MaxResults.
func (c *Coordinator) Search(query string) []search.Match {
	c.mu.RLock()
	matches := c.engine.Search(query)
	c.mu.RUnlock()

	if c.opts.MaxResults > 0 && len(matches) > c.opts.MaxResults {
		matches = matches[:c.opts.MaxResults]
	}
	return matches
}

// AllTags returns every tag with its file count, busiest first.
func (c *Coordinator) AllTags() []tagindex.TagCount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.AllTags()
}

// FilesForTag returns the files carrying tag, nil if the tag is unknown.
func (c *Coordinator) FilesForTag(tag string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.FilesForTag(tag)
}

// TagsForFile returns the tags of one note, nil if it is not indexed.
func (c *Coordinator) TagsForFile(relPath string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.TagsForFile(filepath.ToSlash(relPath))
}

// IsBuilt reports whether the index holds any files.
func (c *Coordinator) IsBuilt() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.IsBuilt()
}

// Meta returns the index bookkeeping counters.
func (c *Coordinator) Meta() tagindex.Meta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Meta()
}

// Subscribe registers a change listener on the underlying store. Listeners
// run synchronously inside mutations, so they must return quickly.
func (c *Coordinator) Subscribe(fn func(tagindex.Event)) func() {
	return c.store.Notifier().Subscribe(fn)
}

// Close releases the durable store.
func (c *Coordinator) Close() error {
	return c.adapter.Close()
}

// readTags reads a note and extracts its tags. A vanished or unreadable
// note yields nil, which the store treats as a removal.
func (c *Coordinator) readTags(relPath string) []string {
	abs := filepath.Join(c.opts.VaultRoot, filepath.FromSlash(relPath))
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil
	}
	return frontmatter.ExtractTags(string(raw))
}

// persist saves a snapshot to the durable store. Failures are already
// logged by the adapter; the in-memory index stays authoritative.
func (c *Coordinator) persist(ctx context.Context, snapshot *tagindex.TagIndex, meta tagindex.Meta) {
	if !c.adapter.Save(ctx, snapshot, meta) {
		slog.Warn("index_persist_skipped", slog.String("reason", "save failed, memory remains authoritative"))
	}
}

// acquireLock takes the cross-process rebuild lock.
func (c *Coordinator) acquireLock(ctx context.Context) (func(), error) {
	if c.opts.StatePath == "" {
		// In-memory store: nothing shared between processes.
		return func() {}, nil
	}

	lockPath := filepath.Join(filepath.Dir(c.opts.StatePath), "rebuild.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, nxerrors.New(nxerrors.ErrCodeStorageWrite, "failed to create lock directory", err)
	}

	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, nxerrors.New(nxerrors.ErrCodeStorageLocked, "failed to acquire rebuild lock", err)
	}
	if !locked {
		return nil, nxerrors.New(nxerrors.ErrCodeStorageLocked, "rebuild lock held by another process", nil)
	}
	return func() { _ = fl.Unlock() }, nil
}
