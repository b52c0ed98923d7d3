package confluence

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const sampleHTML = `
<div class="wiki-content">
    <p>Test paragraph</p>
    <table ac:local-id="test-table">
        <tr>
            <td>Cell 1</td>
            <td>Cell 2</td>
        </tr>
    </table>
    <div data-test="test-div">Test div</div>
</div>
`

func TestParseContent_Serialize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple paragraph",
			input: "<p>A</p>",
			want:  "<p>A</p>",
		},
		{
			name:  "single quoted namespaced attribute",
			input: "<p>Test content</p><table ac:local-id='test-table'><tr><td>Cell 1</td></tr></table>",
			want:  `<p>Test content</p><table ac:local-id="test-table"><tr><td>Cell 1</td></tr></table>`,
		},
		{
			name:  "self-closing storage element",
			input: `<ac:link><ri:page ri:content-title="Home"/></ac:link>`,
			want:  `<ac:link><ri:page ri:content-title="Home"></ri:page></ac:link>`,
		},
		{
			name:  "cdata kept verbatim",
			input: `<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[if a < b && c {}]]></ac:plain-text-body></ac:structured-macro>`,
			want:  `<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[if a < b && c {}]]></ac:plain-text-body></ac:structured-macro>`,
		},
		{
			name:  "unclosed elements closed at end",
			input: "<p>unclosed<div>x",
			want:  "<p>unclosed<div>x</div></p>",
		},
		{
			name:  "stray end tag dropped",
			input: "<p>a</span></p>",
			want:  "<p>a</p>",
		},
		{
			name:  "void element",
			input: "<p>a<br>b</p>",
			want:  "<p>a<br/>b</p>",
		},
		{
			name:  "entities re-escaped",
			input: "<p>a &amp; b</p>",
			want:  "<p>a &amp; b</p>",
		},
		{
			name:  "comment kept",
			input: "<!-- note --><p>x</p>",
			want:  "<!-- note --><p>x</p>",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "text only",
			input: "plain text",
			want:  "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParseContent(tt.input)
			if got := c.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			rendered, err := c.Render()
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if rendered != tt.want {
				t.Errorf("Render() = %q, want %q", rendered, tt.want)
			}
		})
	}
}

func TestParseContent_RoundTripStable(t *testing.T) {
	inputs := []string{
		sampleHTML,
		"<pre>\ncode</pre>",
		"<pre>\n\ncode</pre>",
		"<p>a<b>b<i>c</p>",
		`<ac:task-list><ac:task><ac:task-id>1</ac:task-id><ac:task-status>incomplete</ac:task-status></ac:task></ac:task-list>`,
		"<script>if (a < b) {}</script>",
	}

	for _, input := range inputs {
		first := ParseContent(input).String()
		second := ParseContent(first).String()
		if first != second {
			t.Errorf("round trip changed markup:\nfirst:  %q\nsecond: %q", first, second)
		}
	}
}

func TestContent_Root(t *testing.T) {
	c := ParseContent("<p>A</p><p>B</p>")
	root := c.Root()

	if root.Type != html.DocumentNode {
		t.Errorf("root type = %v, want DocumentNode", root.Type)
	}
	if root.FirstChild == nil || root.FirstChild.Data != "p" {
		t.Fatal("first child should be <p>")
	}
	if root.LastChild == root.FirstChild {
		t.Error("root should hold both paragraphs")
	}
}

func TestContent_FindByAttribute(t *testing.T) {
	c := ParseContent(sampleHTML)

	tests := []struct {
		name    string
		attr    string
		value   string
		wantTag string
	}{
		{"namespaced attribute", "ac:local-id", "test-table", "table"},
		{"data attribute", "data-test", "test-div", "div"},
		{"class attribute", "class", "wiki-content", "div"},
		{"case mismatch", "data-test", "TEST-DIV", ""},
		{"prefix is not a match", "ac:local-id", "test", ""},
		{"substring is not a match", "data-test", "test-div-2", ""},
		{"absent attribute", "non-existent", "value", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := c.FindByAttribute(tt.attr, tt.value)
			if tt.wantTag == "" {
				if n != nil {
					t.Errorf("FindByAttribute(%q, %q) = <%s>, want nil", tt.attr, tt.value, n.Data)
				}
				return
			}
			if n == nil {
				t.Fatalf("FindByAttribute(%q, %q) = nil, want <%s>", tt.attr, tt.value, tt.wantTag)
			}
			if n.Data != tt.wantTag {
				t.Errorf("tag = %q, want %q", n.Data, tt.wantTag)
			}
		})
	}
}

func TestContent_FindByAttribute_DocumentOrder(t *testing.T) {
	c := ParseContent(`<div data-x="1" id="first"><span data-x="1" id="second"></span></div><p data-x="1" id="third"></p>`)

	n := c.FindByAttribute("data-x", "1")
	if n == nil {
		t.Fatal("expected a match")
	}
	if id, _ := Attr(n, "id"); id != "first" {
		t.Errorf("matched id = %q, want 'first'", id)
	}
}

func TestContent_FindByAttribute_Text(t *testing.T) {
	c := ParseContent(sampleHTML)

	div := c.FindByAttribute("data-test", "test-div")
	if div == nil {
		t.Fatal("div not found")
	}
	if !strings.Contains(Text(div), "Test div") {
		t.Errorf("Text() = %q, want it to contain 'Test div'", Text(div))
	}
}

func TestNewTag(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		c := ParseContent("")
		n := c.NewTag("p", nil, "")

		if n.Type != html.ElementNode || n.Data != "p" {
			t.Errorf("got %v %q, want element p", n.Type, n.Data)
		}
		if n.FirstChild != nil {
			t.Error("tag without text should have no children")
		}
		if n.Parent != nil {
			t.Error("new tag should be detached")
		}
	})

	t.Run("with text", func(t *testing.T) {
		n := NewTag("p", nil, "Hello World")
		if got := Text(n); got != "Hello World" {
			t.Errorf("Text() = %q, want 'Hello World'", got)
		}
	})

	t.Run("attribute order kept", func(t *testing.T) {
		attrs := []html.Attribute{
			{Key: "ac:local-id", Val: "new-table"},
			{Key: "data-test", Val: "complex"},
			{Key: "class", Val: "a"},
		}
		n := NewTag("table", attrs, "")
		attrs[0].Val = "changed"

		if got := renderNode(n); got != `<table ac:local-id="new-table" data-test="complex" class="a"></table>` {
			t.Errorf("render = %q", got)
		}
	})
}

func TestContent_AppendAndSerialize(t *testing.T) {
	c := ParseContent(sampleHTML)

	table := c.FindByAttribute("ac:local-id", "test-table")
	if table == nil {
		t.Fatal("table not found")
	}
	row := c.NewTag("tr", nil, "")
	row.AppendChild(c.NewTag("td", nil, "New Cell"))
	table.AppendChild(row)

	out := c.String()
	if !strings.Contains(out, "<tr><td>New Cell</td></tr></table>") {
		t.Errorf("appended row missing from %q", out)
	}

	c.Root().AppendChild(c.NewTag("p", nil, "Added content"))
	if !strings.HasSuffix(c.String(), "<p>Added content</p>") {
		t.Errorf("top-level append missing from %q", c.String())
	}
}

func TestContent_AppendMarkup(t *testing.T) {
	c := ParseContent(`<div id="target"></div>`)

	c.AppendMarkup(c.FindByAttribute("id", "target"), "<p>one</p><p>two</p>")
	c.AppendMarkup(nil, "<hr>")

	want := `<div id="target"><p>one</p><p>two</p></div><hr/>`
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestContent_Prettify(t *testing.T) {
	c := ParseContent("<div><p>A</p><br><p>B</p></div>")

	want := "<div>\n <p>\n  A\n </p>\n <br/>\n <p>\n  B\n </p>\n</div>\n"
	if got := c.Prettify(); got != want {
		t.Errorf("Prettify() = %q, want %q", got, want)
	}
}

func TestContent_PrettifyKeepsStructure(t *testing.T) {
	c := ParseContent(sampleHTML)
	pretty := c.Prettify()

	if !strings.Contains(pretty, "Test paragraph") {
		t.Error("Prettify output lost text")
	}
	if !strings.Contains(pretty, `<table ac:local-id="test-table">`) {
		t.Error("Prettify output lost attributes")
	}

	reparsed := ParseContent(pretty)
	if reparsed.FindByAttribute("ac:local-id", "test-table") == nil {
		t.Error("prettified markup should parse to the same elements")
	}
	if reparsed.FindByAttribute("data-test", "test-div") == nil {
		t.Error("prettified markup should parse to the same elements")
	}
}

func TestAttrAndSetAttr(t *testing.T) {
	n := NewTag("div", []html.Attribute{{Key: "id", Val: "a"}}, "")

	if v, ok := Attr(n, "id"); !ok || v != "a" {
		t.Errorf("Attr(id) = %q, %v", v, ok)
	}
	if _, ok := Attr(n, "missing"); ok {
		t.Error("Attr(missing) should report false")
	}

	SetAttr(n, "id", "b")
	SetAttr(n, "ac:local-id", "x")

	if v, _ := Attr(n, "id"); v != "b" {
		t.Errorf("Attr(id) after SetAttr = %q, want 'b'", v)
	}
	if len(n.Attr) != 2 {
		t.Errorf("len(Attr) = %d, want 2", len(n.Attr))
	}
	if v, _ := Attr(n, "ac:local-id"); v != "x" {
		t.Errorf("Attr(ac:local-id) = %q, want 'x'", v)
	}
}

func TestText_CDATA(t *testing.T) {
	c := ParseContent(`<ac:plain-text-body><![CDATA[fmt.Println("hi")]]></ac:plain-text-body>`)

	if got := Text(c.Root()); got != `fmt.Println("hi")` {
		t.Errorf("Text() = %q", got)
	}
}

func TestContent_Len(t *testing.T) {
	c := ParseContent("<p>A</p>")
	if c.Len() != len("<p>A</p>") {
		t.Errorf("Len() = %d, want %d", c.Len(), len("<p>A</p>"))
	}
}

func TestContent_Markdown(t *testing.T) {
	c := ParseContent("<h1>Title</h1><p>Hello <strong>world</strong></p>")

	md, err := c.Markdown()
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(md, "# Title") {
		t.Errorf("markdown %q missing heading", md)
	}
	if !strings.Contains(md, "**world**") {
		t.Errorf("markdown %q missing bold text", md)
	}
}

func TestContent_Sanitized(t *testing.T) {
	c := ParseContent(`<p onclick="steal()">A</p><script>bad()</script><ac:structured-macro ac:name="info"><ac:rich-text-body><p>note</p></ac:rich-text-body></ac:structured-macro>`)

	out := c.Sanitized()
	if strings.Contains(out, "script") || strings.Contains(out, "bad()") {
		t.Errorf("script survived sanitizing: %q", out)
	}
	if strings.Contains(out, "onclick") {
		t.Errorf("event handler survived sanitizing: %q", out)
	}
	if !strings.Contains(out, "<p>A</p>") {
		t.Errorf("paragraph lost: %q", out)
	}
	if !strings.Contains(out, "<ac:structured-macro") {
		t.Errorf("storage macro lost: %q", out)
	}
}

func TestContent_Clone(t *testing.T) {
	c := ParseContent(`<p class="a">x<![CDATA[y]]></p><br/>`)
	cp := c.Clone()

	SetAttr(cp.Root().FirstChild, "class", "b")
	cp.Root().AppendChild(NewTag("p", nil, "copy"))

	if got := c.String(); got != `<p class="a">x<![CDATA[y]]></p><br/>` {
		t.Errorf("original changed: %q", got)
	}
	if got := cp.String(); got != `<p class="b">x<![CDATA[y]]></p><br/><p>copy</p>` {
		t.Errorf("clone = %q", got)
	}
}

func TestIsVoid(t *testing.T) {
	c := ParseContent(`<p>a</p><img src="x"/>`)
	if IsVoid(c.Root().FirstChild) {
		t.Error("p is not void")
	}
	if !IsVoid(c.Root().LastChild) {
		t.Error("img is void")
	}
	if IsVoid(nil) {
		t.Error("nil is not void")
	}
	for tag, want := range map[string]bool{"br": true, "IMG": true, "hr": true, "p": false, "ac:image": false} {
		if got := IsVoidTag(tag); got != want {
			t.Errorf("IsVoidTag(%q) = %v, want %v", tag, got, want)
		}
	}
}
