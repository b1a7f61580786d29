// Package scanner discovers note files in a vault and extracts their tags.
// Discovery streams results over a channel; extraction fans out over a
// worker pool and caches per-file results keyed by modification time and
// size, so repeated rebuilds only re-read notes that actually changed.
package scanner

import (
	"path/filepath"
	"strings"
	"time"
)

// NoteInfo contains metadata about a discovered note file.
type NoteInfo struct {
	Path    string    // Relative path to the vault root
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// TaggedNote is one note with its extracted tags, in frontmatter order.
// Tags is empty (not nil) for notes whose frontmatter carries no tags.
type TaggedNote struct {
	Path string
	Tags []string
}

// ScanOptions configures vault discovery and extraction.
type ScanOptions struct {
	// RootDir is the vault root directory to scan.
	RootDir string

	// Extensions lists the note file extensions to include, with leading
	// dot (empty = DefaultExtensions).
	Extensions []string

	// ExcludePatterns specifies additional patterns to exclude.
	ExcludePatterns []string

	// Workers is the number of concurrent extraction workers (0 = NumCPU).
	Workers int

	// MaxFileSize is the maximum note size to read in bytes (0 = 2MB default).
	MaxFileSize int64

	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool
}

// ScanResult is returned from the discovery channel.
type ScanResult struct {
	Note  *NoteInfo
	Error error
}

// DefaultMaxFileSize is the default maximum note size (2MB). Notes larger
// than this are skipped; frontmatter lives in the first few hundred bytes,
// so anything bigger is almost certainly not a note.
const DefaultMaxFileSize = 2 * 1024 * 1024

// DefaultExtensions are the note file extensions indexed by default.
var DefaultExtensions = []string{".md", ".markdown"}

// IsNoteFile reports whether path has one of the given note extensions.
// Matching is case-insensitive on the extension.
func IsNoteFile(path string, extensions []string) bool {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range extensions {
		if ext == want {
			return true
		}
	}
	return false
}
