package confluence

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const cdataPrefix = "<![CDATA["

// voidElements never have children and are not pushed on the open stack.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"keygen": true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// compactElements keep their children on one line in Prettify output,
// since their whitespace is significant.
var compactElements = map[string]bool{
	"pre":      true,
	"listing":  true,
	"textarea": true,
	"script":   true,
	"style":    true,
	"code":     true,
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

var storagePolicy = newStoragePolicy()

// Content is the parsed storage-format body of one page. It owns its node
// tree; callers mutate nodes in place and read the result back via String.
type Content struct {
	root *html.Node
}

// ParseContent builds a node tree from storage-format markup. It never fails:
// unclosed elements are closed at end of input, stray end tags are dropped,
// self-closing tags such as <ri:page .../> stay empty and CDATA sections are
// kept verbatim.
//
// The tokenizer is driven directly rather than through html.Parse, which
// would restructure the markup (implicit tbody, foster-parented text, html
// and body wrappers) and break round-trips of Confluence's XML-ish dialect.
func ParseContent(raw string) *Content {
	root := &html.Node{Type: html.DocumentNode}
	stack := []*html.Node{root}

	z := html.NewTokenizer(strings.NewReader(raw))
	z.AllowCDATA(true)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		parent := stack[len(stack)-1]

		switch tt {
		case html.TextToken:
			if rawTok := z.Raw(); bytes.HasPrefix(rawTok, []byte(cdataPrefix)) {
				parent.AppendChild(&html.Node{Type: html.RawNode, Data: string(rawTok)})
				continue
			}
			text := string(z.Text())
			if parent.FirstChild == nil && stripsLeadingNewline(parent) {
				text = strings.TrimPrefix(text, "\n")
			}
			appendText(parent, text)

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			n := &html.Node{
				Type:     html.ElementNode,
				Data:     tok.Data,
				DataAtom: tok.DataAtom,
				Attr:     tok.Attr,
			}
			parent.AppendChild(n)
			if tt == html.StartTagToken && !voidElements[n.Data] {
				stack = append(stack, n)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Data == string(name) {
					stack = stack[:i]
					break
				}
			}

		case html.CommentToken:
			parent.AppendChild(&html.Node{Type: html.CommentNode, Data: string(z.Text())})

		case html.DoctypeToken:
			parent.AppendChild(&html.Node{Type: html.DoctypeNode, Data: string(z.Text())})
		}
	}

	return &Content{root: root}
}

func stripsLeadingNewline(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "pre", "listing", "textarea":
		return true
	}
	return false
}

func appendText(parent *html.Node, text string) {
	if text == "" {
		return
	}
	if last := parent.LastChild; last != nil && last.Type == html.TextNode {
		last.Data += text
		return
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Root returns the document node holding the top-level elements.
func (c *Content) Root() *html.Node {
	return c.root
}

// Render serializes the tree compactly in insertion order.
func (c *Content) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, c.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// String returns the compact serialization for display. A tree that Render
// rejects yields "". Anything written back to Confluence goes through Render.
func (c *Content) String() string {
	s, err := c.Render()
	if err != nil {
		return ""
	}
	return s
}

// Clone returns a deep copy of the tree.
func (c *Content) Clone() *Content {
	return &Content{root: cloneNode(c.root)}
}

func cloneNode(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		cp.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		cp.AppendChild(cloneNode(ch))
	}
	return cp
}

// IsVoid reports whether n is a void element such as br or img, which
// cannot hold children.
func IsVoid(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && voidElements[n.Data]
}

// IsVoidTag reports whether name is a void element name.
func IsVoidTag(name string) bool {
	return voidElements[strings.ToLower(name)]
}

// Len returns the length in bytes of the compact serialization.
func (c *Content) Len() int {
	return len(c.String())
}

// Prettify renders one node per line, indented one space per depth.
func (c *Content) Prettify() string {
	var sb strings.Builder
	for n := c.root.FirstChild; n != nil; n = n.NextSibling {
		prettyNode(&sb, n, 0)
	}
	return sb.String()
}

func prettyNode(sb *strings.Builder, n *html.Node, depth int) {
	indent := strings.Repeat(" ", depth)

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		sb.WriteString(indent)
		sb.WriteString(html.EscapeString(text))
		sb.WriteByte('\n')

	case html.ElementNode:
		if n.FirstChild == nil || compactElements[n.Data] {
			sb.WriteString(indent)
			sb.WriteString(renderNode(n))
			sb.WriteByte('\n')
			return
		}
		sb.WriteString(indent)
		writeStartTag(sb, n)
		sb.WriteByte('\n')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			prettyNode(sb, c, depth+1)
		}
		sb.WriteString(indent)
		sb.WriteString("</" + n.Data + ">")
		sb.WriteByte('\n')

	default:
		sb.WriteString(indent)
		sb.WriteString(renderNode(n))
		sb.WriteByte('\n')
	}
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

func writeStartTag(sb *strings.Builder, n *html.Node) {
	sb.WriteByte('<')
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteByte(' ')
		sb.WriteString(attrKey(a))
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
}

// Find returns the first node in document order for which match is true.
func (c *Content) Find(match func(*html.Node) bool) *html.Node {
	return find(c.root, match)
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// FindByAttribute returns the first element whose attribute name equals value
// exactly, or nil. Namespaced names such as "ac:local-id" are matched as written.
func (c *Content) FindByAttribute(name, value string) *html.Node {
	return c.Find(func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := Attr(n, name)
		return ok && v == value
	})
}

// NewTag creates a detached element. Attributes keep the given order and
// text, when non-empty, becomes its only child.
func (c *Content) NewTag(name string, attrs []html.Attribute, text string) *html.Node {
	return NewTag(name, attrs, text)
}

// NewTag creates a detached element outside of any content tree.
func NewTag(name string, attrs []html.Attribute, text string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     name,
		DataAtom: atom.Lookup([]byte(name)),
	}
	if len(attrs) > 0 {
		n.Attr = append([]html.Attribute(nil), attrs...)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return n
}

// AppendMarkup parses markup and appends the resulting nodes to parent.
// A nil parent appends at the top level.
func (c *Content) AppendMarkup(parent *html.Node, markup string) {
	if parent == nil {
		parent = c.root
	}
	frag := ParseContent(markup).root
	for n := frag.FirstChild; n != nil; {
		next := n.NextSibling
		frag.RemoveChild(n)
		parent.AppendChild(n)
		n = next
	}
}

// Markdown converts the body to Markdown. Confluence macros without an HTML
// equivalent contribute their text content only.
func (c *Content) Markdown() (string, error) {
	s, err := c.Render()
	if err != nil {
		return "", err
	}
	return mdConverter.ConvertString(s)
}

// Sanitized returns the body filtered through a UGC policy that also allows
// the common Confluence storage elements.
func (c *Content) Sanitized() string {
	return storagePolicy.Sanitize(c.String())
}

// storageElements are the Confluence storage-format elements kept by Sanitized.
var storageElements = []string{
	"ac:structured-macro", "ac:parameter", "ac:rich-text-body",
	"ac:plain-text-body", "ac:link", "ac:link-body", "ac:plain-text-link-body",
	"ac:image", "ac:emoticon",
	"ac:task-list", "ac:task", "ac:task-id", "ac:task-status", "ac:task-body",
	"ac:layout", "ac:layout-section", "ac:layout-cell",
	"ri:page", "ri:attachment", "ri:url", "ri:user", "ri:space",
}

func newStoragePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements(storageElements...)
	p.AllowNoAttrs().OnElements(storageElements...)
	p.AllowAttrs("ac:local-id", "local-id", "data-layout", "data-table-width").Globally()
	p.AllowAttrs("ac:name", "ac:schema-version", "ac:macro-id").
		OnElements("ac:structured-macro", "ac:parameter", "ac:emoticon")
	p.AllowAttrs("ac:type").OnElements("ac:layout-section")
	p.AllowAttrs("ri:content-title", "ri:space-key", "ri:filename", "ri:value", "ri:account-id", "ri:userkey").
		OnElements("ri:page", "ri:attachment", "ri:url", "ri:user", "ri:space")
	return p
}

// Attr returns the value of the first attribute named key.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if attrKey(a) == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the first attribute named key, appending it when absent.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if attrKey(a) == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Text returns the concatenated text of n and its descendants. CDATA
// sections contribute their inner content.
func Text(n *html.Node) string {
	var sb strings.Builder
	collectText(&sb, n)
	return sb.String()
}

func collectText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.RawNode:
		if strings.HasPrefix(n.Data, cdataPrefix) {
			sb.WriteString(strings.TrimSuffix(strings.TrimPrefix(n.Data, cdataPrefix), "]]>"))
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(sb, c)
	}
}

func attrKey(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}
