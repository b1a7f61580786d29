// Package store persists the tag index as a single opaque record in a
// SQLite key-value slot. Persistence is deliberately decoupled from the
// index store: a failed save is reported as a boolean and logged, never
// propagated — the in-memory index stays authoritative and the next
// successful save catches up.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/fernvale/notedex/internal/tagindex"
)

// DefaultMaxAge is the staleness threshold used when the caller passes a
// non-positive value to IsStale. The index is cheap to update incrementally
// but a full rescan is not, so the default is generous.
const DefaultMaxAge = 24 * time.Hour

// slotKey names the single durable record.
const slotKey = "tag_index"

// Adapter owns the durable slot for one vault.
type Adapter struct {
	db   *sql.DB
	path string

	// lastIndexed mirrors the persisted timestamp; refreshed on every
	// successful Save and Load, cleared by Clear.
	lastIndexed time.Time

	// now is swappable for tests.
	now func() time.Time
}

// record is the serialized shape of the durable slot.
type record struct {
	Index json.RawMessage `json:"index"`
	Meta  tagindex.Meta   `json:"meta"`
}

// Open opens (or creates) the durable store at path. An empty path opens an
// in-memory database for testing. A corrupted database file is removed and
// recreated: the index rebuilds incrementally, so discarding a broken record
// is always safe.
func Open(path string) (*Adapter, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("index_store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("index store corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("index_store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, index will rebuild"))
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &Adapter{db: db, path: path, now: time.Now}, nil
}

// validateIntegrity checks an existing SQLite file before opening it.
// Returns nil if the file is missing (it will be created) or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Save serializes index and meta into the durable slot. Returns false and
// logs the cause on any serialization or storage failure; callers never see
// an error and the in-memory index is never rolled back.
func (a *Adapter) Save(ctx context.Context, index *tagindex.TagIndex, meta tagindex.Meta) bool {
	rawIndex, err := json.Marshal(index)
	if err != nil {
		slog.Error("index_save_failed",
			slog.String("stage", "marshal"),
			slog.String("error", err.Error()))
		return false
	}

	blob, err := json.Marshal(record{Index: rawIndex, Meta: meta})
	if err != nil {
		slog.Error("index_save_failed",
			slog.String("stage", "marshal"),
			slog.String("error", err.Error()))
		return false
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		slotKey, string(blob), a.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		slog.Error("index_save_failed",
			slog.String("stage", "write"),
			slog.String("error", err.Error()))
		return false
	}

	a.lastIndexed = meta.LastIndexed
	return true
}

// Load deserializes the durable record. Returns ok=false when no record
// exists or the stored blob fails shape validation — callers must treat that
// as "index not yet built", not as an error.
func (a *Adapter) Load(ctx context.Context) (*tagindex.TagIndex, tagindex.Meta, bool) {
	var blob string
	err := a.db.QueryRowContext(ctx,
		`SELECT value FROM state WHERE key = ?`, slotKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tagindex.Meta{}, false
	}
	if err != nil {
		slog.Error("index_load_failed", slog.String("error", err.Error()))
		return nil, tagindex.Meta{}, false
	}

	var rec record
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		slog.Warn("index_record_invalid",
			slog.String("reason", "unparseable record"),
			slog.String("error", err.Error()))
		return nil, tagindex.Meta{}, false
	}

	index, err := decodeIndex(rec.Index)
	if err != nil {
		slog.Warn("index_record_invalid", slog.String("reason", err.Error()))
		return nil, tagindex.Meta{}, false
	}

	a.lastIndexed = rec.Meta.LastIndexed
	return index, rec.Meta, true
}

// decodeIndex validates the stored index shape: all three top-level fields
// must be present with the right types.
func decodeIndex(raw json.RawMessage) (*tagindex.TagIndex, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing index field")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("index is not an object: %w", err)
	}
	for _, key := range []string{"files", "tags", "all_tags"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("index missing %q field", key)
		}
	}

	var index tagindex.TagIndex
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("index fields have wrong shape: %w", err)
	}
	if index.Files == nil {
		index.Files = make(map[string][]string)
	}
	if index.Tags == nil {
		index.Tags = make(map[string][]string)
	}
	return &index, nil
}

// Clear deletes the durable record unconditionally.
func (a *Adapter) Clear(ctx context.Context) {
	if _, err := a.db.ExecContext(ctx,
		`DELETE FROM state WHERE key = ?`, slotKey); err != nil {
		slog.Error("index_clear_failed", slog.String("error", err.Error()))
		return
	}
	a.lastIndexed = time.Time{}
}

// IsStale reports whether the persisted index is too old to trust: true if
// no index has ever been saved or loaded, or if the last-indexed timestamp
// is older than maxAge. A non-positive maxAge means DefaultMaxAge.
func (a *Adapter) IsStale(maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if a.lastIndexed.IsZero() {
		return true
	}
	return a.now().Sub(a.lastIndexed) > maxAge
}

// LastIndexed returns the timestamp mirrored from the durable record.
func (a *Adapter) LastIndexed() time.Time {
	return a.lastIndexed
}

// Close releases the underlying database.
func (a *Adapter) Close() error {
	return a.db.Close()
}
