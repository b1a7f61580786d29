package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTags_Forms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bracketed flow list",
			text: "---\ntags: [javascript, react, testing]\n---\n# Content",
			want: []string{"javascript", "react", "testing"},
		},
		{
			name: "comma separated scalar",
			text: "---\ntags: go, notes, vault\n---\nbody",
			want: []string{"go", "notes", "vault"},
		},
		{
			name: "block list",
			text: "---\ntags:\n  - journal\n  - daily\n---\n",
			want: []string{"journal", "daily"},
		},
		{
			name: "bare scalar",
			text: "---\ntags: inbox\n---\n",
			want: []string{"inbox"},
		},
		{
			name: "quoted entries keep inner text",
			text: "---\ntags: [\"deep work\", 'focus']\n---\n",
			want: []string{"deep work", "focus"},
		},
		{
			name: "whitespace trimmed",
			text: "---\ntags: [  spaced ,  out  ]\n---\n",
			want: []string{"spaced", "out"},
		},
		{
			name: "duplicates collapse to first appearance",
			text: "---\ntags: [a, b, a]\n---\n",
			want: []string{"a", "b"},
		},
		{
			name: "other fields around tags",
			text: "---\ntitle: Weekly review\ntags: [review]\ndate: 2025-06-01\n---\n",
			want: []string{"review"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTags(tt.text))
		})
	}
}

func TestExtractTags_EmptyResults(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no frontmatter", "# Just a heading\n\nSome text"},
		{"empty file", ""},
		{"delimiter not first line", "\n---\ntags: [a]\n---\n"},
		{"unterminated block", "---\ntags: [a]\n# never closed"},
		{"no tags field", "---\ntitle: Untagged\n---\n"},
		{"null tags field", "---\ntags:\n---\n"},
		{"malformed yaml", "---\ntags: [unclosed\n  nope: : :\n---\n"},
		{"tags field not scalar or list", "---\ntags:\n  nested: map\n---\n"},
		{"only empty entries", "---\ntags: [ , , ]\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ExtractTags(tt.text))
		})
	}
}

func TestExtractTags_CRLFInput(t *testing.T) {
	text := "---\r\ntags: [windows, notes]\r\n---\r\nbody"
	assert.Equal(t, []string{"windows", "notes"}, ExtractTags(text))
}

func TestExtractTags_IsPure(t *testing.T) {
	text := "---\ntags: [same]\n---\n"
	first := ExtractTags(text)
	second := ExtractTags(text)
	assert.Equal(t, first, second)
}
