package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Patterns(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{"literal basename", []string{"draft.md"}, "notes/draft.md", false, true},
		{"star glob", []string{"*.tmp"}, "scratch.tmp", false, true},
		{"star does not cross slash", []string{"*.tmp"}, "a/b.md", false, false},
		{"question mark", []string{"note?.md"}, "note1.md", false, true},
		{"anchored root only", []string{"/inbox.md"}, "inbox.md", false, true},
		{"anchored misses nested", []string{"/inbox.md"}, "deep/inbox.md", false, false},
		{"inner slash anchors", []string{"daily/todo.md"}, "daily/todo.md", false, true},
		{"inner slash misses nested", []string{"daily/todo.md"}, "x/daily/todo.md", false, false},
		{"dir only matches dir", []string{"archive/"}, "archive", true, true},
		{"dir only skips file", []string{"archive/"}, "archive", false, false},
		{"dir only covers contents", []string{"archive/"}, "archive/old.md", false, true},
		{"double star prefix", []string{"**/drafts/*.md"}, "a/b/drafts/x.md", false, true},
		{"double star at root", []string{"**/drafts/*.md"}, "drafts/x.md", false, true},
		{"negation rescues", []string{"*.md", "!keep.md"}, "keep.md", false, false},
		{"later rule wins", []string{"!keep.md", "*.md"}, "keep.md", false, true},
		{"character class", []string{"note[0-9].md"}, "note7.md", false, true},
		{"comment skipped", []string{"# *.md"}, "a.md", false, false},
		{"blank skipped", []string{"   "}, "a.md", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromPatterns(tt.patterns)
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_EmptyIgnoresNothing(t *testing.T) {
	m := New()

	assert.False(t, m.Match("anything.md", false))
	assert.Equal(t, 0, m.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	// Given: a vault without an ignore file
	dir := t.TempDir()

	// When: loading
	m, err := Load(dir)

	// Then: an empty matcher, no error
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestLoad_ReadsPatterns(t *testing.T) {
	// Given: a vault with an ignore file
	dir := t.TempDir()
	content := "# private notes\njournal/\n*.tmp\n!journal/public.md\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	// When: loading
	m, err := Load(dir)

	// Then: rules apply in order
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Match("journal/2024.md", false))
	assert.True(t, m.Match("scratch.tmp", false))
	assert.False(t, m.Match("journal/public.md", false))
	assert.False(t, m.Match("notes/real.md", false))
}
