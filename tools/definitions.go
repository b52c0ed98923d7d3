package tools

// AllTools contains all tool specifications for the Confluence MCP server.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// READ TOOLS
	// ==========================================================================
	{
		Name:     "confluence_get_page",
		Method:   "GetPage",
		Title:    "Get Confluence Page",
		Category: CategoryRead,
		Description: `Read a Confluence page body by page ID.

USE WHEN: User says "show me page 12345", "what does the page say", "convert the page to markdown".

NOT FOR: Locating one element on a page (use confluence_find_element).

PARAMETERS:
- page_id: Numeric page ID (required)
- format: storage (default), markdown, html (sanitized) or pretty (indented storage)

RETURNS: Title, version number and the body in the requested format. Bodies over 25000 characters are truncated.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "confluence_find_element",
		Method:   "FindElement",
		Title:    "Find Element by Attribute",
		Category: CategoryRead,
		Description: `Find the first element on a page whose attribute equals a value exactly.

USE WHEN: User says "find the table with local id X", "show the macro named Y", or before appending inside a specific element.

NOT FOR: Reading the whole page (use confluence_get_page).

PARAMETERS:
- page_id: Numeric page ID (required)
- attribute: Attribute name, e.g. ac:local-id, data-layout, id (required)
- value: Exact, case-sensitive value (required)

RETURNS: Tag name, markup and text of the element, or found=false.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// WRITE TOOLS
	// ==========================================================================
	{
		Name:     "confluence_append_content",
		Method:   "AppendContent",
		Title:    "Append Content to Page",
		Category: CategoryWrite,
		Description: `Append a new element to a page and save it as a new version.

USE WHEN: User says "add a paragraph to page X", "add a row to the table with local id Y".

PARAMETERS:
- page_id: Numeric page ID (required)
- tag: Element name, e.g. p, h2, tr (required)
- text: Text content (optional)
- attributes: Map of attribute name to value (optional)
- anchor_attribute / anchor_value: Append inside the first element matching this attribute instead of at the end of the page (optional)

RETURNS: Old and new version numbers.

NOTE: The page version is incremented by exactly one. Concurrent edits by others cause a 409 error; fetch again and retry.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:     "confluence_create_blog_post",
		Method:   "CreateBlogPost",
		Title:    "Create Blog Post",
		Category: CategoryWrite,
		Description: `Publish a blog post in a space.

USE WHEN: User says "post an announcement", "write a blog post in space X".

PARAMETERS:
- space_id: Numeric space ID (required)
- title: Post title (required)
- body: Storage-format XHTML, e.g. <p>Hello</p> (required)

RETURNS: New post ID and the request URL.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},
	{
		Name:     "confluence_upload_attachment",
		Method:   "UploadAttachment",
		Title:    "Upload Attachment",
		Category: CategoryWrite,
		Description: `Attach a local file to a page or blog post.

USE WHEN: User says "attach report.pdf to page X", "upload this image to the post".

PARAMETERS:
- content_id: Numeric ID of the page or blog post (required)
- file_path: Path of the file on the server's filesystem (required)

RETURNS: Attachment ID and filename.

NOTE: Uploading a file with an existing attachment name fails; Confluence keeps the original.`,
		ReadOnly:    false,
		Destructive: false,
		Idempotent:  false,
		OpenWorld:   true,
	},

	// ==========================================================================
	// JOURNAL TOOLS
	// ==========================================================================
	{
		Name:     "confluence_recent_writes",
		Method:   "RecentWrites",
		Title:    "Recent Writes",
		Category: CategoryJournal,
		Description: `List the most recent write operations made by this server.

USE WHEN: User asks "what did you change", "which pages were edited today".

PARAMETERS:
- limit: Max entries (default 20, max 200)

RETURNS: Operation, content ID, resulting version, status and error per write, newest first.`,
		ReadOnly:     true,
		Idempotent:   true,
		NeedsJournal: true,
	},
}
