// Package watcher observes a vault directory for note changes and emits
// debounced batches of file events. Editors save in bursts (temp file,
// rename, fsync), so raw filesystem events are coalesced per path before
// they reach the index.
package watcher

import "time"

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new note was created.
	OpCreate Operation = iota
	// OpModify indicates an existing note was modified.
	OpModify
	// OpDelete indicates a note was deleted.
	OpDelete
	// OpRename indicates a note was renamed away from this path.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a single note change.
type FileEvent struct {
	// Path is the path relative to the vault root, slash-separated.
	Path string

	// OldPath is the previous path for rename events. Empty otherwise.
	OldPath string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 200ms
	DebounceWindow time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 1000
	EventBufferSize int

	// Extensions lists the note extensions to watch (empty = .md, .markdown).
	Extensions []string

	// ExcludePatterns are directory patterns whose events are dropped.
	ExcludePatterns []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		EventBufferSize: 1000,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
