package tagindex

import (
	"sort"
	"time"
)

// Store owns the in-memory tag index and restores the index invariants
// before every mutation returns. It is the single mutation point for the
// index: callers serialize file lifecycle events through one Store rather
// than sharing the maps directly.
//
// Store is not internally synchronized. The surrounding coordinator
// guarantees a single mutator at a time.
type Store struct {
	idx      *TagIndex
	meta     Meta
	notifier *Notifier

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates an empty store with its own notifier.
func NewStore() *Store {
	return &Store{
		idx:      NewTagIndex(),
		notifier: NewNotifier(),
		now:      time.Now,
	}
}

// Notifier returns the store's change notifier.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// UpdateFile upserts a file's tag set. An empty tag set removes the file
// entirely: a file with no tags never occupies an index slot.
func (s *Store) UpdateFile(path string, tags []string) {
	changed := s.applyUpdate(path, tags)
	if !changed {
		return
	}

	s.rebuildAggregate()
	s.touch()

	kind := EventUpdate
	if len(tags) == 0 {
		kind = EventRemove
	}
	s.notifier.Publish(Event{Kind: kind, Path: path})
}

// RemoveFile removes a file and prunes any tags left with no references.
// It is a no-op, not an error, if the path is not indexed; calling it twice
// leaves the index identical to calling it once.
func (s *Store) RemoveFile(path string) {
	s.UpdateFile(path, nil)
}

// RenameFile moves a file's index entry to a new path. Tag membership,
// tag order, and the positions of other references are preserved. No-op if
// oldPath is not indexed.
func (s *Store) RenameFile(oldPath, newPath string) {
	tags, ok := s.idx.Files[oldPath]
	if !ok || oldPath == newPath {
		return
	}

	// If the destination is already indexed, drop its entry first so tag
	// lists never hold the same path twice.
	if _, taken := s.idx.Files[newPath]; taken {
		s.applyUpdate(newPath, nil)
	}

	delete(s.idx.Files, oldPath)
	s.idx.Files[newPath] = tags

	for _, tag := range tags {
		paths := s.idx.Tags[tag]
		for i, p := range paths {
			if p == oldPath {
				paths[i] = newPath
				break
			}
		}
	}

	s.rebuildAggregate()
	s.touch()
	s.notifier.Publish(Event{Kind: EventRename, Path: newPath, OldPath: oldPath})
}

// ReplaceAll wholesale-replaces the index after a directory-wide rescan.
// The caller is responsible for supplying a structurally consistent index;
// the store trusts its input on this path only. A nil AllTags is derived
// from the tag map.
func (s *Store) ReplaceAll(idx *TagIndex) {
	if idx == nil {
		idx = NewTagIndex()
	}
	if idx.Files == nil {
		idx.Files = make(map[string][]string)
	}
	if idx.Tags == nil {
		idx.Tags = make(map[string][]string)
	}
	s.idx = idx
	if s.idx.AllTags == nil {
		s.rebuildAggregate()
	}
	s.touch()
	s.notifier.Publish(Event{Kind: EventUpdate})
}

// Reset clears the index and the last-indexed timestamp.
func (s *Store) Reset() {
	s.idx = NewTagIndex()
	s.meta = Meta{}
	s.notifier.Publish(Event{Kind: EventReset})
}

// IsBuilt reports whether any file or tag entry exists.
func (s *Store) IsBuilt() bool {
	return len(s.idx.Files) > 0 || len(s.idx.Tags) > 0
}

// FilesForTag returns the paths carrying tag, or nil if the tag is unknown.
func (s *Store) FilesForTag(tag string) []string {
	paths, ok := s.idx.Tags[tag]
	if !ok {
		return nil
	}
	return append([]string(nil), paths...)
}

// TagsForFile returns the tags recorded for path, or nil if not indexed.
func (s *Store) TagsForFile(path string) []string {
	tags, ok := s.idx.Files[path]
	if !ok {
		return nil
	}
	return append([]string(nil), tags...)
}

// AllTags returns the maintained aggregate list. The slice is kept current
// on every write, so reads are O(1) with no recomputation. Callers must not
// mutate the returned slice.
func (s *Store) AllTags() []TagCount {
	return s.idx.AllTags
}

// Meta returns the observational sidecar state.
func (s *Store) Meta() Meta {
	return s.meta
}

// SetMeta restores the sidecar state, used when a persisted index is loaded
// and the original last-indexed timestamp must survive the restart.
func (s *Store) SetMeta(meta Meta) {
	s.meta = meta
}

// Snapshot returns a deep copy of the index plus the current meta, suitable
// for handing to the persistence adapter while mutations continue.
func (s *Store) Snapshot() (*TagIndex, Meta) {
	return s.idx.Clone(), s.meta
}

// applyUpdate performs the map surgery for an upsert and reports whether
// anything changed. The aggregate is not touched here.
func (s *Store) applyUpdate(path string, tags []string) bool {
	old, existed := s.idx.Files[path]
	if !existed && len(tags) == 0 {
		return false
	}

	// Remove the path from tags it no longer carries, pruning emptied keys.
	if existed {
		keep := make(map[string]struct{}, len(tags))
		for _, t := range tags {
			keep[t] = struct{}{}
		}
		for _, t := range old {
			if _, still := keep[t]; still {
				continue
			}
			s.idx.Tags[t] = removePath(s.idx.Tags[t], path)
			if len(s.idx.Tags[t]) == 0 {
				delete(s.idx.Tags, t)
			}
		}
	}

	if len(tags) == 0 {
		delete(s.idx.Files, path)
		return true
	}

	s.idx.Files[path] = append([]string(nil), tags...)

	// Ensure the path appears exactly once per tag.
	for _, t := range tags {
		if !containsPath(s.idx.Tags[t], path) {
			s.idx.Tags[t] = append(s.idx.Tags[t], path)
		}
	}
	return true
}

// rebuildAggregate recomputes AllTags from the tag map and re-sorts it:
// count descending, ties by tag name ascending.
func (s *Store) rebuildAggregate() {
	agg := make([]TagCount, 0, len(s.idx.Tags))
	for tag, paths := range s.idx.Tags {
		agg = append(agg, TagCount{Tag: tag, Count: len(paths)})
	}
	sort.Slice(agg, func(i, j int) bool {
		if agg[i].Count != agg[j].Count {
			return agg[i].Count > agg[j].Count
		}
		return agg[i].Tag < agg[j].Tag
	})
	s.idx.AllTags = agg
}

// touch refreshes the sidecar meta after a successful mutation.
func (s *Store) touch() {
	s.meta.LastIndexed = s.now()
	s.meta.FileCount = len(s.idx.Files)
	s.meta.TagCount = len(s.idx.Tags)
}

func removePath(paths []string, path string) []string {
	out := paths[:0]
	for _, p := range paths {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}
