package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fernvale/notedex/internal/search"
	"github.com/fernvale/notedex/internal/tagindex"
)

func plainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRenderer(&buf, true), &buf
}

func TestRenderer_TagList(t *testing.T) {
	r, buf := plainRenderer()

	r.TagList([]tagindex.TagCount{
		{Tag: "javascript", Count: 12},
		{Tag: "go", Count: 3},
	})

	out := buf.String()
	assert.Contains(t, out, "javascript")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "3")
}

func TestRenderer_TagList_Empty(t *testing.T) {
	r, buf := plainRenderer()

	r.TagList(nil)

	assert.Contains(t, buf.String(), "no tags indexed")
}

func TestRenderer_SearchResults(t *testing.T) {
	r, buf := plainRenderer()

	r.SearchResults([]search.Match{
		{Tag: "javascript", Count: 2, Score: 100, MatchedIndexes: []int{0, 1, 2, 3}},
		{Tag: "java", Count: 1, Score: 90},
	})

	out := buf.String()
	assert.Contains(t, out, "javascript")
	assert.Contains(t, out, "java")
}

func TestRenderer_SearchResults_Empty(t *testing.T) {
	r, buf := plainRenderer()

	r.SearchResults(nil)

	assert.Contains(t, buf.String(), "no matching tags")
}

func TestRenderer_FileList(t *testing.T) {
	r, buf := plainRenderer()

	r.FileList("go", []string{"a.md", "projects/b.md"})

	out := buf.String()
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, "projects/b.md")
}

func TestRenderer_Status(t *testing.T) {
	r, buf := plainRenderer()

	r.Status(tagindex.Meta{
		LastIndexed: time.Now().Add(-time.Minute),
		FileCount:   4,
		TagCount:    7,
	}, true, "/vault/.notedex/index.db")

	out := buf.String()
	assert.Contains(t, out, "files")
	assert.Contains(t, out, "4")
	assert.Contains(t, out, "tags")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "/vault/.notedex/index.db")
}

func TestRenderer_Status_EmptyIndex(t *testing.T) {
	r, buf := plainRenderer()

	r.Status(tagindex.Meta{}, false, "")

	assert.Contains(t, buf.String(), "index is empty")
}
