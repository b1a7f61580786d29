// Package ui renders tag listings, search results, and status summaries
// for the terminal. Output degrades to plain text when stdout is not a TTY
// or color is disabled.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/fernvale/notedex/internal/search"
	"github.com/fernvale/notedex/internal/tagindex"
)

// Renderer writes formatted results. Write errors are ignored: terminal
// output failing is not actionable.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for out, choosing colored or plain styles.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	return &Renderer{out: out, styles: GetStyles(noColor)}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TagList renders the aggregate tag list, busiest tags first.
func (r *Renderer) TagList(tags []tagindex.TagCount) {
	if len(tags) == 0 {
		r.println(r.styles.Dim.Render("no tags indexed"))
		return
	}

	width := 0
	for _, tc := range tags {
		if len(tc.Tag) > width {
			width = len(tc.Tag)
		}
	}

	for _, tc := range tags {
		pad := strings.Repeat(" ", width-len(tc.Tag))
		r.println(fmt.Sprintf("%s%s  %s",
			r.styles.Tag.Render(tc.Tag), pad,
			r.styles.Count.Render(fmt.Sprintf("%d", tc.Count))))
	}
}

// SearchResults renders ranked matches, highlighting the matched runes.
func (r *Renderer) SearchResults(matches []search.Match) {
	if len(matches) == 0 {
		r.println(r.styles.Dim.Render("no matching tags"))
		return
	}

	for _, m := range matches {
		r.println(fmt.Sprintf("%s  %s",
			r.highlightTag(m.Tag, m.MatchedIndexes),
			r.styles.Count.Render(fmt.Sprintf("%d", m.Count))))
	}
}

// FileList renders the files carrying one tag.
func (r *Renderer) FileList(tag string, paths []string) {
	if len(paths) == 0 {
		r.println(r.styles.Dim.Render(fmt.Sprintf("no files tagged %q", tag)))
		return
	}

	r.println(r.styles.Header.Render(tag))
	for _, p := range paths {
		r.println("  " + r.styles.Path.Render(p))
	}
}

// Status renders the index bookkeeping summary.
func (r *Renderer) Status(meta tagindex.Meta, built bool, statePath string) {
	if !built {
		r.println(r.styles.Dim.Render("index is empty"))
		return
	}

	last := "never"
	if !meta.LastIndexed.IsZero() {
		last = fmt.Sprintf("%s (%s ago)",
			meta.LastIndexed.Format(time.RFC3339),
			time.Since(meta.LastIndexed).Round(time.Second))
	}

	r.println(r.styles.Header.Render("index status"))
	r.printKV("files", fmt.Sprintf("%d", meta.FileCount))
	r.printKV("tags", fmt.Sprintf("%d", meta.TagCount))
	r.printKV("last indexed", last)
	if statePath != "" {
		r.printKV("state", statePath)
	}
}

// Warningf renders a warning line.
func (r *Renderer) Warningf(format string, args ...any) {
	r.println(r.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Errorf renders an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	r.println(r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Printf renders an unstyled line.
func (r *Renderer) Printf(format string, args ...any) {
	r.println(fmt.Sprintf(format, args...))
}

// highlightTag emphasizes the matched rune positions within tag.
func (r *Renderer) highlightTag(tag string, matched []int) string {
	if len(matched) == 0 {
		return r.styles.Tag.Render(tag)
	}

	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var b strings.Builder
	for i, ch := range []rune(tag) {
		s := string(ch)
		if hit[i] {
			b.WriteString(r.styles.Highlight.Render(s))
		} else {
			b.WriteString(r.styles.Tag.Render(s))
		}
	}
	return b.String()
}

func (r *Renderer) printKV(key, value string) {
	r.println(fmt.Sprintf("  %s %s",
		r.styles.Count.Render(key+":"), value))
}

func (r *Renderer) println(line string) {
	_, _ = fmt.Fprintln(r.out, line)
}
