// Package tagindex maintains the bidirectional file-to-tag mapping for a
// note vault, plus the derived per-tag usage counts.
//
// The index guarantees three invariants across all mutations:
//   - referential consistency: every tag listed for a file references that
//     file back, and vice versa
//   - no orphans: no tag key with an empty file list, no file key with an
//     empty tag list
//   - aggregate correctness: AllTags mirrors the tag map, sorted by usage
//     count descending with ties broken by tag name ascending
package tagindex

import "time"

// TagCount is one entry of the derived aggregate tag list.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagIndex is the canonical index state.
//
// Files maps a vault-relative file path to the tags found in its
// frontmatter, in appearance order. Tags maps a tag to the file paths that
// carry it, without duplicates. AllTags is derived from Tags and is never
// mutated independently.
type TagIndex struct {
	Files   map[string][]string `json:"files"`
	Tags    map[string][]string `json:"tags"`
	AllTags []TagCount          `json:"all_tags"`
}

// NewTagIndex returns an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{
		Files: make(map[string][]string),
		Tags:  make(map[string][]string),
	}
}

// Clone returns a deep copy of the index.
func (ti *TagIndex) Clone() *TagIndex {
	out := &TagIndex{
		Files:   make(map[string][]string, len(ti.Files)),
		Tags:    make(map[string][]string, len(ti.Tags)),
		AllTags: append([]TagCount(nil), ti.AllTags...),
	}
	for p, tags := range ti.Files {
		out.Files[p] = append([]string(nil), tags...)
	}
	for t, paths := range ti.Tags {
		out.Tags[t] = append([]string(nil), paths...)
	}
	return out
}

// Meta is observational sidecar state about the index. It is not covered by
// the index invariants.
type Meta struct {
	// LastIndexed is the time of the last mutation that changed the maps.
	// The zero value means the index has never been built.
	LastIndexed time.Time `json:"last_indexed"`
	FileCount   int       `json:"file_count"`
	TagCount    int       `json:"tag_count"`
}
