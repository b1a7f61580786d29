// Package search ranks tags against a fuzzy query. The engine operates on
// the aggregate tag list only — it never touches file contents, so a search
// is a pure in-memory operation over at most a few thousand entries.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/fernvale/notedex/internal/tagindex"
)

// Match is one ranked search hit.
type Match struct {
	// Tag is the matched tag name.
	Tag string `json:"tag"`
	// Count is the number of files carrying the tag.
	Count int `json:"count"`
	// Score is the fuzzy match score; higher is better. Only comparable
	// within a single result set.
	Score int `json:"score"`
	// MatchedIndexes are the rune positions in Tag that matched the query,
	// for highlighting.
	MatchedIndexes []int `json:"matched_indexes,omitempty"`
}

// Engine matches queries against a snapshot of the aggregate tag list.
// Rebuild it whenever the index changes; building is cheap.
type Engine struct {
	entries []tagindex.TagCount
}

// NewEngine returns an engine with an empty tag list.
func NewEngine() *Engine {
	return &Engine{}
}

// Build replaces the engine's tag list with a copy of allTags.
func (e *Engine) Build(allTags []tagindex.TagCount) {
	e.entries = make([]tagindex.TagCount, len(allTags))
	copy(e.entries, allTags)
}

// Size returns the number of tags the engine matches against.
func (e *Engine) Size() int {
	return len(e.entries)
}

// tagSource adapts the tag list to the fuzzy matcher.
type tagSource []tagindex.TagCount

func (s tagSource) String(i int) string { return s[i].Tag }
func (s tagSource) Len() int            { return len(s) }

// Search returns tags matching query, ranked by match score descending,
// then file count descending, then tag name ascending. An empty or
// whitespace-only query returns no matches; non-matching tags are excluded
// entirely.
func (e *Engine) Search(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	found := fuzzy.FindFrom(query, tagSource(e.entries))
	if len(found) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(found))
	for _, m := range found {
		entry := e.entries[m.Index]
		matches = append(matches, Match{
			Tag:            entry.Tag,
			Count:          entry.Count,
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Count != matches[j].Count {
			return matches[i].Count > matches[j].Count
		}
		return matches[i].Tag < matches[j].Tag
	})
	return matches
}
