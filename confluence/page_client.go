package confluence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/olgasafonova/confluence-mcp-server/internal/base"
	"github.com/olgasafonova/confluence-mcp-server/metrics"
)

// PageClient reads and writes pages through the content REST API.
type PageClient struct {
	*base.Client
	baseURL string
}

// NewPageClient creates a page client for the site in creds.
func NewPageClient(creds Credentials, opts ...ClientOption) *PageClient {
	return &PageClient{
		Client:  newBaseClient(creds, opts...),
		baseURL: normalizeBaseURL(creds.BaseURL),
	}
}

func (c *PageClient) pageURL(pageID string) string {
	return fmt.Sprintf("%s/wiki/rest/api/content/%s", c.baseURL, url.PathEscape(pageID))
}

// Get fetches a page with its storage body and version expanded.
func (c *PageClient) Get(ctx context.Context, pageID string) (*Page, error) {
	reqURL := c.pageURL(pageID) + "?expand=body.storage,version"

	resp, err := c.Do(ctx, base.RequestConfig{
		Method:      http.MethodGet,
		URL:         reqURL,
		ContentType: jsonContentType,
		Operation:   "get_page",
	})
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", pageID, err)
	}
	if err := checkResponse(http.MethodGet, resp); err != nil {
		return nil, err
	}

	metrics.RecordContentSize("get_page", len(resp.Body))
	return ParsePage(pageID, resp.Body)
}

// Put increments the page version and writes the page back, returning the
// page as stored by the server.
//
// The increment is applied to page before the request is sent and is not
// undone when the write fails. Callers retrying a failed Put should start
// from a freshly fetched page.
func (c *PageClient) Put(ctx context.Context, page *Page) (*Page, error) {
	// A body that cannot be serialized is rejected before the version moves.
	if _, err := page.ContentDict(); err != nil {
		metrics.RecordEdit("update_page", false)
		return nil, err
	}
	if err := page.IncreaseVersion(); err != nil {
		return nil, err
	}
	body, err := page.JSON()
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, base.RequestConfig{
		Method:      http.MethodPut,
		URL:         c.pageURL(page.ID()),
		Body:        body,
		ContentType: jsonContentType,
		Operation:   "update_page",
	})
	metrics.RecordContentSize("update_page", len(body))
	if err != nil {
		metrics.RecordEdit("update_page", false)
		return nil, fmt.Errorf("update page %s: %w", page.ID(), err)
	}
	if err := checkResponse(http.MethodPut, resp); err != nil {
		metrics.RecordEdit("update_page", false)
		return nil, err
	}

	metrics.RecordEdit("update_page", true)
	return ParsePage(page.ID(), resp.Body)
}

// Edit fetches a page, applies mutate to its content and writes it back.
// Nothing is written when mutate returns an error.
func (c *PageClient) Edit(ctx context.Context, pageID string, mutate func(*Content) error) (*Page, error) {
	page, err := c.Get(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if err := mutate(page.WorkingContent()); err != nil {
		return nil, err
	}
	return c.Put(ctx, page)
}
