// Package ignore matches vault-relative paths against .notedexignore
// patterns. The syntax follows gitignore: * and ? glob within one path
// segment, ** spans segments, a trailing / restricts to directories, a
// leading ! negates, and later rules win.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileName is the ignore file looked up at the vault root.
const FileName = ".notedexignore"

// Matcher holds compiled ignore rules. Build it once, then it is safe for
// concurrent reads.
type Matcher struct {
	rules []rule
}

type rule struct {
	regex    *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
}

// New creates an empty matcher that ignores nothing.
func New() *Matcher {
	return &Matcher{}
}

// FromPatterns creates a matcher from literal patterns.
func FromPatterns(patterns []string) *Matcher {
	m := New()
	for _, p := range patterns {
		m.Add(p)
	}
	return m
}

// Load reads the ignore file at the vault root. A missing file yields an
// empty matcher and no error.
func Load(vaultRoot string) (*Matcher, error) {
	path := filepath.Join(vaultRoot, FileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	m := New()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file: %w", err)
	}
	return m, nil
}

// Add compiles one pattern line. Blank lines and # comments are skipped.
func (m *Matcher) Add(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return
	}

	var r rule
	if strings.HasPrefix(pattern, "!") {
		r.negate = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	// A slash inside the pattern anchors it to the vault root, same as git.
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		r.anchored = true
	}
	if pattern == "" {
		return
	}

	r.regex = regexp.MustCompile("^" + globToRegex(pattern) + "$")
	m.rules = append(m.rules, r)
}

// Len returns the number of compiled rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match reports whether relPath should be ignored. relPath is
// slash-separated and relative to the vault root.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	if len(m.rules) == 0 {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	ignored := false
	for _, r := range m.rules {
		if matchRule(relPath, isDir, r) {
			ignored = !r.negate
		}
	}
	return ignored
}

func matchRule(relPath string, isDir bool, r rule) bool {
	parts := strings.Split(relPath, "/")

	if r.anchored {
		if r.regex.MatchString(relPath) {
			return !r.dirOnly || isDir
		}
		// A directory rule also covers everything beneath the directory.
		if r.dirOnly {
			for i := range parts[:len(parts)-1] {
				if r.regex.MatchString(strings.Join(parts[:i+1], "/")) {
					return true
				}
			}
		}
		return false
	}

	if r.dirOnly {
		for i, part := range parts {
			if r.regex.MatchString(part) {
				if i == len(parts)-1 {
					return isDir
				}
				return true
			}
		}
		return false
	}

	if r.regex.MatchString(relPath) {
		return true
	}
	for _, part := range parts {
		if r.regex.MatchString(part) {
			return true
		}
	}
	return false
}

// globToRegex converts one ignore pattern to a regular expression.
func globToRegex(pattern string) string {
	var b strings.Builder

	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			if strings.HasPrefix(pattern[i:], "**/") {
				b.WriteString("(?:.*/)?")
				i += 3
				continue
			}
			if strings.HasPrefix(pattern[i:], "**") {
				b.WriteString(".*")
				i += 2
				continue
			}
			b.WriteString("[^/]*")
			i++
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end > 0 {
				b.WriteString(pattern[i : i+end+1])
				i += end + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return b.String()
}
