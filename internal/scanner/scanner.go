package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/fernvale/notedex/internal/frontmatter"
	"github.com/fernvale/notedex/internal/ignore"
)

// tagCacheSize bounds the per-file tag cache. Vaults rarely exceed a few
// thousand notes; eviction only costs a re-read on the next rebuild.
const tagCacheSize = 10000

// cachedTags is one tag cache entry, valid while the file's modification
// time and size are unchanged.
type cachedTags struct {
	modTime time.Time
	size    int64
	tags    []string
}

// Scanner discovers note files in a vault and extracts their tags.
type Scanner struct {
	tagCache *lru.Cache[string, cachedTags]
	cacheMu  sync.RWMutex
}

// New creates a new Scanner instance.
func New() (*Scanner, error) {
	cache, err := lru.New[string, cachedTags](tagCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag cache: %w", err)
	}
	return &Scanner{tagCache: cache}, nil
}

// Scan discovers all note files under the vault root. It returns a channel
// of ScanResult that streams notes as they are discovered; the channel is
// closed when the walk completes.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root is not a directory: %s", absRoot)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ignoreMatcher, err := ignore.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore file: %w", err)
	}

	results := make(chan ScanResult, workers*10)

	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts, maxFileSize, ignoreMatcher, results)
	}()

	return results, nil
}

// walk performs the actual directory traversal.
func (s *Scanner) walk(ctx context.Context, absRoot string, opts *ScanOptions, maxFileSize int64, ignoreMatcher *ignore.Matcher, results chan<- ScanResult) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries we can't access
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if shouldExcludeDir(relPath, opts) {
				return filepath.SkipDir
			}
			if ignoreMatcher.Match(filepath.ToSlash(relPath), true) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		if !IsNoteFile(relPath, opts.Extensions) {
			return nil
		}

		if shouldExcludeFile(relPath, opts) {
			return nil
		}

		if ignoreMatcher.Match(filepath.ToSlash(relPath), false) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}

		note := &NoteInfo{
			Path:    filepath.ToSlash(relPath),
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		select {
		case results <- ScanResult{Note: note}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// Extract discovers every note under the vault root and extracts its tags,
// fanning file reads out over a worker pool. Results are sorted by path so
// callers see deterministic order. Unreadable notes are skipped; only walk
// failures abort the extraction.
func (s *Scanner) Extract(ctx context.Context, opts *ScanOptions) ([]TaggedNote, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      sync.Mutex
		notes   []TaggedNote
		walkErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for result := range results {
		if result.Error != nil {
			// A walk error arrives last, just before the channel closes;
			// remember it and let in-flight workers finish.
			walkErr = result.Error
			continue
		}
		note := result.Note

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			tags, ok := s.extractTags(note)
			if !ok {
				return nil // Unreadable note, skip
			}

			mu.Lock()
			notes = append(notes, TaggedNote{Path: note.Path, Tags: tags})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].Path < notes[j].Path })
	return notes, nil
}

// extractTags returns the note's tags, consulting the cache first. The
// cached entry is reused only when modification time and size both match.
func (s *Scanner) extractTags(note *NoteInfo) ([]string, bool) {
	s.cacheMu.RLock()
	entry, ok := s.tagCache.Get(note.Path)
	s.cacheMu.RUnlock()
	if ok && entry.modTime.Equal(note.ModTime) && entry.size == note.Size {
		return entry.tags, true
	}

	raw, err := os.ReadFile(note.AbsPath)
	if err != nil {
		return nil, false
	}

	tags := frontmatter.ExtractTags(string(raw))

	s.cacheMu.Lock()
	s.tagCache.Add(note.Path, cachedTags{
		modTime: note.ModTime,
		size:    note.Size,
		tags:    tags,
	})
	s.cacheMu.Unlock()

	return tags, true
}

// InvalidateCache drops all cached tag extractions. Call it when cached
// results can no longer be trusted, e.g. after the vault root changes.
func (s *Scanner) InvalidateCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.tagCache.Purge()
}

// Invalidate drops the cached extraction for a single note.
func (s *Scanner) Invalidate(relPath string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.tagCache.Remove(filepath.ToSlash(relPath))
}

// shouldExcludeDir checks if a directory should be excluded.
func shouldExcludeDir(relPath string, opts *ScanOptions) bool {
	for _, pattern := range defaultExcludeDirs {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	for _, pattern := range opts.ExcludePatterns {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// shouldExcludeFile checks if a note file should be excluded.
func shouldExcludeFile(relPath string, opts *ScanOptions) bool {
	baseName := filepath.Base(relPath)
	for _, pattern := range opts.ExcludePatterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	return false
}

// matchDirPattern checks if a directory path matches a pattern.
func matchDirPattern(relPath, pattern string) bool {
	// **/name/** matches the named directory at any depth.
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

	// dir/** matches the directory itself and everything below it.
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return relPath == prefix || strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}

	return relPath == pattern || strings.HasPrefix(relPath, pattern+string(filepath.Separator))
}

// matchFilePattern checks if a file matches a pattern.
func matchFilePattern(baseName, relPath, pattern string) bool {
	// dir/** matches any file below the directory.
	if strings.HasSuffix(pattern, "/**") && !strings.HasPrefix(pattern, "**/") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}

	// **/*.ext and **/name match on the basename at any depth.
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		if strings.HasPrefix(suffix, "*.") {
			return strings.HasSuffix(baseName, strings.TrimPrefix(suffix, "*"))
		}
		return baseName == suffix
	}

	// *pattern* (contains, case-insensitive).
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		middle := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
		return strings.Contains(strings.ToLower(baseName), strings.ToLower(middle))
	}

	// *suffix and prefix*.
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(baseName, strings.TrimPrefix(pattern, "*"))
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(baseName, strings.TrimSuffix(pattern, "*"))
	}

	return baseName == pattern
}

// defaultExcludeDirs are never scanned: editor and VCS metadata plus the
// vault's own trash.
var defaultExcludeDirs = []string{
	"**/.git/**",
	"**/.obsidian/**",
	"**/.trash/**",
	"**/node_modules/**",
	"**/.notedex/**",
}
