package confluence

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"golang.org/x/net/html"

	apierrors "github.com/olgasafonova/confluence-mcp-server/internal/errors"
)

// MaxBodyChars caps page bodies returned to MCP clients
const MaxBodyChars = 25000

// GetPageMCP wraps Get for MCP tool handlers
func (c *PageClient) GetPageMCP(ctx context.Context, args GetPageArgs) (GetPageResult, error) {
	if err := ValidateContentID("page_id", args.PageID); err != nil {
		return GetPageResult{}, err
	}
	if err := ValidateFormat(args.Format); err != nil {
		return GetPageResult{}, err
	}

	page, err := c.Get(ctx, args.PageID)
	if err != nil {
		return GetPageResult{}, err
	}

	format := args.Format
	if format == "" {
		format = FormatStorage
	}

	content := page.WorkingContent()
	var body string
	switch format {
	case FormatMarkdown:
		body, err = content.Markdown()
		if err != nil {
			return GetPageResult{}, fmt.Errorf("failed to convert page %s to markdown: %w", args.PageID, err)
		}
	case FormatHTML:
		body = content.Sanitized()
	case FormatPretty:
		body = content.Prettify()
	default:
		body, err = content.Render()
		if err != nil {
			return GetPageResult{}, fmt.Errorf("failed to render page %s: %w", args.PageID, err)
		}
	}

	body, truncated := truncateContent(body, MaxBodyChars)
	return GetPageResult{
		PageID:    page.ID(),
		Title:     page.Title(),
		Version:   page.Version(),
		Format:    format,
		Body:      body,
		Truncated: truncated,
	}, nil
}

// FindElementMCP wraps Get and FindByAttribute for MCP tool handlers.
// A missing element is reported in the result, not as an error.
func (c *PageClient) FindElementMCP(ctx context.Context, args FindElementArgs) (FindElementResult, error) {
	if err := ValidateContentID("page_id", args.PageID); err != nil {
		return FindElementResult{}, err
	}
	if err := ValidateAttributeName("attribute", args.Attribute); err != nil {
		return FindElementResult{}, err
	}

	page, err := c.Get(ctx, args.PageID)
	if err != nil {
		return FindElementResult{}, err
	}

	n := page.WorkingContent().FindByAttribute(args.Attribute, args.Value)
	if n == nil {
		return FindElementResult{
			PageID:  args.PageID,
			Message: apierrors.NewElementNotFoundError(args.PageID, args.Attribute, args.Value).Error(),
		}, nil
	}

	markup, _ := truncateContent(renderNode(n), MaxBodyChars)
	return FindElementResult{
		PageID: args.PageID,
		Found:  true,
		Tag:    n.Data,
		Markup: markup,
		Text:   Text(n),
	}, nil
}

// AppendContentMCP wraps Edit for MCP tool handlers. The new element goes at
// the end of the page, or inside the anchor element when one is named.
func (c *PageClient) AppendContentMCP(ctx context.Context, args AppendContentArgs) (AppendContentResult, error) {
	if err := ValidateContentID("page_id", args.PageID); err != nil {
		return AppendContentResult{}, err
	}
	if err := ValidateTagName(args.Tag); err != nil {
		return AppendContentResult{}, err
	}
	if args.Text != "" && IsVoidTag(args.Tag) {
		return AppendContentResult{}, apierrors.NewValidationError("text", args.Text, "must be empty for void element <"+args.Tag+">")
	}
	for name := range args.Attributes {
		if err := ValidateAttributeName("attributes", name); err != nil {
			return AppendContentResult{}, err
		}
	}
	if args.AnchorAttribute != "" {
		if err := ValidateAttributeName("anchor_attribute", args.AnchorAttribute); err != nil {
			return AppendContentResult{}, err
		}
	}

	page, err := c.Get(ctx, args.PageID)
	if err != nil {
		return AppendContentResult{}, err
	}
	oldVersion := page.Version()

	content := page.WorkingContent()
	parent := content.Root()
	if args.AnchorAttribute != "" {
		parent = content.FindByAttribute(args.AnchorAttribute, args.AnchorValue)
		if parent == nil {
			return AppendContentResult{}, apierrors.NewElementNotFoundError(args.PageID, args.AnchorAttribute, args.AnchorValue)
		}
		if IsVoid(parent) {
			return AppendContentResult{}, apierrors.NewValidationError("anchor_attribute", args.AnchorAttribute,
				"matches void element <"+parent.Data+">, which cannot contain children")
		}
	}
	parent.AppendChild(content.NewTag(args.Tag, sortedAttributes(args.Attributes), args.Text))

	updated, err := c.Put(ctx, page)
	if err != nil {
		return AppendContentResult{}, err
	}

	return AppendContentResult{
		PageID:     updated.ID(),
		Title:      updated.Title(),
		OldVersion: oldVersion,
		NewVersion: updated.Version(),
		Message:    fmt.Sprintf("Appended <%s> to page %s", args.Tag, args.PageID),
	}, nil
}

// CreateBlogPostMCP wraps Create for MCP tool handlers
func (c *BlogClient) CreateBlogPostMCP(ctx context.Context, args CreateBlogPostArgs) (CreateBlogPostResult, error) {
	if err := ValidateContentID("space_id", args.SpaceID); err != nil {
		return CreateBlogPostResult{}, err
	}
	if err := ValidateTitle(args.Title); err != nil {
		return CreateBlogPostResult{}, err
	}

	resp, err := c.Create(ctx, args.SpaceID, args.Title, args.Body)
	if err != nil {
		return CreateBlogPostResult{}, err
	}

	var created struct {
		ID string `json:"id"`
	}
	// The post exists at this point; an unexpected body only loses the id.
	_ = resp.JSON(&created)

	return CreateBlogPostResult{
		ID:      created.ID,
		SpaceID: args.SpaceID,
		Title:   args.Title,
		Status:  resp.StatusCode,
		URL:     resp.URL,
	}, nil
}

// UploadAttachmentMCP wraps Upload for MCP tool handlers
func (c *AttachmentClient) UploadAttachmentMCP(ctx context.Context, args UploadAttachmentArgs) (UploadAttachmentResult, error) {
	if err := ValidateContentID("content_id", args.ContentID); err != nil {
		return UploadAttachmentResult{}, err
	}
	path, err := resolveAttachmentPath(args.FilePath, c.AllowedDir)
	if err != nil {
		return UploadAttachmentResult{}, err
	}

	resp, err := c.Upload(ctx, args.ContentID, path)
	if err != nil {
		return UploadAttachmentResult{}, err
	}

	var uploaded struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	_ = resp.JSON(&uploaded)

	result := UploadAttachmentResult{
		ContentID: args.ContentID,
		Filename:  filepath.Base(path),
		Status:    resp.StatusCode,
		URL:       resp.URL,
	}
	if len(uploaded.Results) > 0 {
		result.AttachmentID = uploaded.Results[0].ID
	}
	return result, nil
}

// sortedAttributes orders a map by attribute name so the generated markup
// is deterministic.
func sortedAttributes(m map[string]string) []html.Attribute {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]html.Attribute, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, html.Attribute{Key: k, Val: m[k]})
	}
	return attrs
}

// truncateContent cuts s to at most maxChars runes
func truncateContent(s string, maxChars int) (string, bool) {
	total := utf8.RuneCountInString(s)
	if total <= maxChars {
		return s, false
	}

	truncationMsg := fmt.Sprintf(`

---
[CONTENT TRUNCATED]
Showing: %d of %d characters (%.1f%% of full content)

To read a specific part, use confluence_find_element with an attribute
such as ac:local-id.`,
		maxChars, total, float64(maxChars)/float64(total)*100)

	return string([]rune(s)[:maxChars]) + truncationMsg, true
}
