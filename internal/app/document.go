package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Category is one top-level entry of a document. List values keep each
// element as its compact JSON encoding so field order inside items survives
// a rewrite; any other value is kept whole in Value.
type Category struct {
	Name  string
	Items []json.RawMessage
	Value json.RawMessage
}

func (c Category) IsList() bool {
	return c.Value == nil
}

func (c Category) clone() Category {
	out := Category{Name: c.Name}
	if c.Value != nil {
		out.Value = append(json.RawMessage(nil), c.Value...)
		return out
	}
	out.Items = make([]json.RawMessage, len(c.Items))
	for i, item := range c.Items {
		out.Items[i] = append(json.RawMessage(nil), item...)
	}
	return out
}

// Document is a JSON object whose key order is significant.
type Document struct {
	Categories []Category
}

type CategorySummary struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	doc := &Document{}
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parse document: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse document: category %q: %w", key, err)
		}
		category, err := newCategory(key, raw)
		if err != nil {
			return nil, err
		}
		// Last value wins, first position is kept.
		if i, seen := index[key]; seen {
			doc.Categories[i] = category
			continue
		}
		index[key] = len(doc.Categories)
		doc.Categories = append(doc.Categories, category)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("parse document: trailing data: %w", err)
		}
		return nil, fmt.Errorf("parse document: trailing data starting with %v", tok)
	}
	return doc, nil
}

func newCategory(name string, raw json.RawMessage) (Category, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return Category{}, fmt.Errorf("parse document: category %q: %w", name, err)
		}
		items := make([]json.RawMessage, 0, len(elems))
		for _, elem := range elems {
			compact, err := compactJSON(elem)
			if err != nil {
				return Category{}, fmt.Errorf("parse document: category %q: %w", name, err)
			}
			items = append(items, compact)
		}
		return Category{Name: name, Items: items}, nil
	}
	compact, err := compactJSON(raw)
	if err != nil {
		return Category{}, fmt.Errorf("parse document: category %q: %w", name, err)
	}
	return Category{Name: name, Value: compact}, nil
}

// compactJSON strips insignificant whitespace and writes \uXXXX escapes of
// printable non-ASCII characters as UTF-8.
func compactJSON(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(unescapeNonASCII(buf.Bytes())), nil
}

// unescapeNonASCII expects valid JSON, where a backslash only occurs inside
// a string. Control characters, quotes and ASCII escapes are left alone.
func unescapeNonASCII(src []byte) []byte {
	if !bytes.Contains(src, []byte(`\u`)) {
		return src
	}
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] != '\\' || i+1 >= len(src) {
			out = append(out, src[i])
			continue
		}
		if r, n := decodeEscapedRune(src[i:]); n > 0 {
			out = utf8.AppendRune(out, r)
			i += n - 1
			continue
		}
		out = append(out, src[i], src[i+1])
		i++
	}
	return out
}

// decodeEscapedRune decodes a \uXXXX escape, or a surrogate pair of them, at
// the start of b. It returns n == 0 when the escape should stay as it is.
func decodeEscapedRune(b []byte) (rune, int) {
	r, ok := parseEscape(b)
	if !ok {
		return 0, 0
	}
	n := 6
	if utf16.IsSurrogate(r) {
		low, ok := parseEscape(b[6:])
		if !ok {
			return 0, 0
		}
		r = utf16.DecodeRune(r, low)
		n = 12
	}
	if r < utf8.RuneSelf || r == utf8.RuneError || !unicode.IsPrint(r) {
		return 0, 0
	}
	return r, n
}

func parseEscape(b []byte) (rune, bool) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(b[2:6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func (d *Document) Len() int {
	return len(d.Categories)
}

func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		keys = append(keys, c.Name)
	}
	return keys
}

func (d *Document) Get(name string) (Category, bool) {
	for _, c := range d.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

func (d *Document) Clone() *Document {
	out := &Document{Categories: make([]Category, len(d.Categories))}
	for i, c := range d.Categories {
		out.Categories[i] = c.clone()
	}
	return out
}

func (d *Document) ItemCount() int {
	total := 0
	for _, c := range d.Categories {
		total += len(c.Items)
	}
	return total
}

func (d *Document) Summary() []CategorySummary {
	out := make([]CategorySummary, 0, len(d.Categories))
	for _, c := range d.Categories {
		if c.IsList() {
			out = append(out, CategorySummary{Name: c.Name, Kind: "list", Count: len(c.Items)})
			continue
		}
		out = append(out, CategorySummary{Name: c.Name, Kind: valueKind(c.Value)})
	}
	return out
}

func valueKind(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "list"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// MarshalIndent renders the document as standard indented JSON in key order.
func (d *Document) MarshalIndent(indent string) ([]byte, error) {
	if len(d.Categories) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, c := range d.Categories {
		key, err := encodeKey(c.Name)
		if err != nil {
			return nil, err
		}
		value, err := c.compactValue()
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		buf.WriteString(indent)
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, value, indent, indent); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if i < len(d.Categories)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c Category) compactValue() ([]byte, error) {
	if !c.IsList() {
		return compactJSON(c.Value)
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range c.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		compact, err := compactJSON(item)
		if err != nil {
			return nil, err
		}
		buf.Write(compact)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// encodeKey quotes a key with the standard encoder, leaving <, > and & and
// non-ASCII text as they are.
func encodeKey(name string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(name); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
