package confluence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Page is a Confluence page document together with its parsed body.
//
// The raw document and the content tree are two views of one page. The tree
// is authoritative: ContentDict writes its serialization into
// body.storage.value before handing the document out, and every write path
// goes through it.
type Page struct {
	id      string
	raw     map[string]any
	content *Content
}

// NewPage wraps a page document and parses its body.storage.value.
func NewPage(id string, raw map[string]any) (*Page, error) {
	storage, ok := lookupMap(raw, "body", "storage")
	if !ok {
		return nil, fmt.Errorf("page %s: %w", id, ErrBodyMissing)
	}
	value, ok := storage["value"].(string)
	if !ok {
		return nil, fmt.Errorf("page %s: %w", id, ErrBodyMissing)
	}
	return &Page{
		id:      id,
		raw:     raw,
		content: ParseContent(value),
	}, nil
}

// ParsePage decodes a JSON page document. Numbers are kept as json.Number so
// fields the client does not touch are written back exactly as received.
func ParsePage(id string, data []byte) (*Page, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("page %s: %w", id, ErrBodyMissing)
	}
	return NewPage(id, raw)
}

// ID returns the page identifier.
func (p *Page) ID() string {
	return p.id
}

// WorkingContent returns the page's content tree. Changes made through it
// show up in the next ContentDict call.
func (p *Page) WorkingContent() *Content {
	return p.content
}

// ContentDict stores the current serialization of the content tree in
// body.storage.value and returns the page document itself, not a copy.
// A tree that cannot be serialized, such as a void element given children,
// is an error and leaves body.storage.value as it was.
func (p *Page) ContentDict() (map[string]any, error) {
	value, err := p.content.Render()
	if err != nil {
		return nil, fmt.Errorf("page %s: %w: %v", p.id, ErrInvalidContent, err)
	}
	storage, _ := lookupMap(p.raw, "body", "storage")
	storage["value"] = value
	return p.raw, nil
}

// IncreaseVersion adds one to version.number and rewrites the last path
// segment of version._links.self to the new number. Nothing else in the link
// changes. Documents without those fields are rejected with ErrVersionMissing
// and left as they were.
func (p *Page) IncreaseVersion() error {
	version, ok := p.raw["version"].(map[string]any)
	if !ok {
		return fmt.Errorf("page %s: %w: no version object", p.id, ErrVersionMissing)
	}
	number, err := versionNumber(version["number"])
	if err != nil {
		return fmt.Errorf("page %s: %w: %v", p.id, ErrVersionMissing, err)
	}
	links, ok := version["_links"].(map[string]any)
	if !ok {
		return fmt.Errorf("page %s: %w: no version._links", p.id, ErrVersionMissing)
	}
	self, ok := links["self"].(string)
	if !ok {
		return fmt.Errorf("page %s: %w: no version._links.self", p.id, ErrVersionMissing)
	}

	number++
	version["number"] = json.Number(strconv.Itoa(number))
	links["self"] = self[:strings.LastIndex(self, "/")+1] + strconv.Itoa(number)
	return nil
}

// Version returns version.number, or 0 when absent.
func (p *Page) Version() int {
	version, ok := p.raw["version"].(map[string]any)
	if !ok {
		return 0
	}
	n, err := versionNumber(version["number"])
	if err != nil {
		return 0
	}
	return n
}

// Title returns the page title, or "" when absent.
func (p *Page) Title() string {
	title, _ := p.raw["title"].(string)
	return title
}

// JSON encodes ContentDict. Markup in the body is not HTML-escaped.
func (p *Page) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	doc, err := p.ContentDict()
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode page %s: %w", p.id, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Prettify returns ContentDict as JSON indented by two spaces.
func (p *Page) Prettify() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	doc, err := p.ContentDict()
	if err != nil {
		return "", err
	}
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode page %s: %w", p.id, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Clone returns an independent page. The document and the content tree are
// both deep-copied, so edits to either page never show up in the other.
func (p *Page) Clone() *Page {
	return &Page{
		id:      p.id,
		raw:     deepCopy(p.raw).(map[string]any),
		content: p.content.Clone(),
	}
}

func lookupMap(m map[string]any, keys ...string) (map[string]any, bool) {
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func versionNumber(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("version.number %q is not an integer", n.String())
		}
		return i, nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("version.number %v is not an integer", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("version.number %q is not an integer", n)
		}
		return i, nil
	case nil:
		return 0, fmt.Errorf("version.number is missing")
	default:
		return 0, fmt.Errorf("version.number has unsupported type %T", v)
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
