// Package frontmatter extracts tags from the YAML metadata block at the top
// of a note. Extraction is a pure function over raw file text: it performs
// no I/O and never fails — malformed metadata degrades to an empty result.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// delimiter bounds the metadata block: a "---" line at the very start of the
// file and a matching line later.
const delimiter = "---"

// tagForm is the recognized shape of the tags field. The four accepted
// frontmatter spellings collapse into three parse variants: YAML parses both
// the bracketed flow list and the block list into a sequence node.
type tagForm int

const (
	formAbsent tagForm = iota
	formList           // [a, b, c] or "- a" block list
	formCommaScalar    // tags: a, b, c
	formBareScalar     // tags: a
)

// ExtractTags parses the note's leading metadata block and returns its tags
// in appearance order, deduplicated and whitespace-trimmed. Returns an empty
// result when there is no block, no tags field, or the block is malformed.
func ExtractTags(rawText string) []string {
	block, ok := extractBlock(rawText)
	if !ok {
		return nil
	}

	node := tagsNode(block)
	form, values := classify(node)
	if form == formAbsent {
		return nil
	}
	return normalize(values)
}

// extractBlock returns the text between the opening delimiter line and the
// next delimiter line. The opening delimiter must be the first line of the
// file; an unterminated block yields no metadata.
func extractBlock(rawText string) (string, bool) {
	lines := strings.Split(rawText, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != delimiter {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == delimiter {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}

// tagsNode parses the block as YAML and returns the value node of the tags
// field, or nil if parsing fails or the field is missing.
func tagsNode(block string) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Kind == yaml.ScalarNode && strings.EqualFold(key.Value, "tags") {
			return val
		}
	}
	return nil
}

// classify maps the tags value node onto a tagForm and its raw string values.
func classify(node *yaml.Node) (tagForm, []string) {
	if node == nil {
		return formAbsent, nil
	}

	switch node.Kind {
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				values = append(values, item.Value)
			}
		}
		return formList, values

	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			return formAbsent, nil
		}
		if strings.Contains(node.Value, ",") {
			return formCommaScalar, strings.Split(node.Value, ",")
		}
		return formBareScalar, []string{node.Value}

	default:
		return formAbsent, nil
	}
}

// normalize trims whitespace, drops empties, and dedupes while preserving
// first-appearance order.
func normalize(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		tag := strings.TrimSpace(v)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
