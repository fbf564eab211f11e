package app

import (
	"fmt"
	"strings"
)

const (
	compactKeyIndent  = "  "
	compactItemIndent = "    "
	itemsPerLine      = 2
)

// WriteCompact renders the document with two list items per line:
//
//	{
//	  "nature": [
//	    {"id":1},{"id":2},
//	    {"id":3}
//	  ],
//	  "featured": {"id":9}
//	}
//
// The output depends only on the document's order and content. There is no
// trailing newline after the closing brace.
func WriteCompact(doc *Document) ([]byte, error) {
	lines := []string{"{"}
	last := len(doc.Categories) - 1
	for ci, c := range doc.Categories {
		key, err := encodeKey(c.Name)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		trailer := ""
		if ci < last {
			trailer = ","
		}

		if !c.IsList() {
			value, err := compactJSON(c.Value)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", c.Name, err)
			}
			lines = append(lines, compactKeyIndent+string(key)+": "+string(value)+trailer)
			continue
		}

		lines = append(lines, compactKeyIndent+string(key)+": [")
		for i := 0; i < len(c.Items); i += itemsPerLine {
			end := min(i+itemsPerLine, len(c.Items))
			parts := make([]string, 0, end-i)
			for j, item := range c.Items[i:end] {
				compact, err := compactJSON(item)
				if err != nil {
					return nil, fmt.Errorf("category %q item %d: %w", c.Name, i+j, err)
				}
				parts = append(parts, string(compact))
			}
			suffix := ""
			if end < len(c.Items) {
				suffix = ","
			}
			lines = append(lines, compactItemIndent+strings.Join(parts, ",")+suffix)
		}
		lines = append(lines, compactKeyIndent+"]"+trailer)
	}
	lines = append(lines, "}")
	return []byte(strings.Join(lines, "\n")), nil
}
