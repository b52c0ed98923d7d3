package confluence

// Output formats accepted by GetPageArgs.Format
const (
	FormatStorage  = "storage"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatPretty   = "pretty"
)

// GetPageArgs contains parameters for reading a page
type GetPageArgs struct {
	PageID string `json:"page_id" jsonschema:"Numeric Confluence page ID, e.g. 12345"`
	Format string `json:"format,omitempty" jsonschema:"Body format: storage (default), markdown, html (sanitized) or pretty (indented storage)"`
}

// GetPageResult is the result of reading a page
type GetPageResult struct {
	PageID    string `json:"page_id"`
	Title     string `json:"title,omitempty"`
	Version   int    `json:"version"`
	Format    string `json:"format"`
	Body      string `json:"body"`
	Truncated bool   `json:"truncated,omitempty"`
}

// FindElementArgs contains parameters for locating an element by attribute
type FindElementArgs struct {
	PageID    string `json:"page_id" jsonschema:"Numeric Confluence page ID"`
	Attribute string `json:"attribute" jsonschema:"Attribute name, e.g. ac:local-id or data-table-width"`
	Value     string `json:"value" jsonschema:"Exact, case-sensitive attribute value"`
}

// FindElementResult is the result of an attribute lookup
type FindElementResult struct {
	PageID  string `json:"page_id"`
	Found   bool   `json:"found"`
	Tag     string `json:"tag,omitempty"`
	Markup  string `json:"markup,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// AppendContentArgs contains parameters for appending an element to a page
type AppendContentArgs struct {
	PageID          string            `json:"page_id" jsonschema:"Numeric Confluence page ID"`
	Tag             string            `json:"tag" jsonschema:"Tag name of the new element, e.g. p or h2"`
	Text            string            `json:"text,omitempty" jsonschema:"Text content of the new element"`
	Attributes      map[string]string `json:"attributes,omitempty" jsonschema:"Attributes of the new element; applied in name order"`
	AnchorAttribute string            `json:"anchor_attribute,omitempty" jsonschema:"Append inside the first element with this attribute instead of at the end of the page"`
	AnchorValue     string            `json:"anchor_value,omitempty" jsonschema:"Exact value of anchor_attribute"`
}

// AppendContentResult is the result of appending content
type AppendContentResult struct {
	PageID     string `json:"page_id"`
	Title      string `json:"title,omitempty"`
	OldVersion int    `json:"old_version"`
	NewVersion int    `json:"new_version"`
	Message    string `json:"message"`
}

// CreateBlogPostArgs contains parameters for creating a blog post
type CreateBlogPostArgs struct {
	SpaceID string `json:"space_id" jsonschema:"Numeric ID of the space the post belongs to"`
	Title   string `json:"title" jsonschema:"Blog post title"`
	Body    string `json:"body" jsonschema:"Post body in Confluence storage format (XHTML)"`
}

// CreateBlogPostResult is the result of creating a blog post
type CreateBlogPostResult struct {
	ID      string `json:"id,omitempty"`
	SpaceID string `json:"space_id"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	URL     string `json:"url"`
}

// UploadAttachmentArgs contains parameters for uploading an attachment
type UploadAttachmentArgs struct {
	ContentID string `json:"content_id" jsonschema:"ID of the page or blog post receiving the attachment"`
	FilePath  string `json:"file_path" jsonschema:"Path of the file on the server's filesystem; must be inside the configured attachment directory"`
}

// UploadAttachmentResult is the result of uploading an attachment
type UploadAttachmentResult struct {
	ContentID    string `json:"content_id"`
	AttachmentID string `json:"attachment_id,omitempty"`
	Filename     string `json:"filename"`
	Status       int    `json:"status"`
	URL          string `json:"url"`
}
