package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/olgasafonova/confluence-mcp-server/internal/base"
	"github.com/olgasafonova/confluence-mcp-server/metrics"
)

// BlogClient creates blog posts through the v2 API.
type BlogClient struct {
	*base.Client
	baseURL string
	now     func() time.Time
}

// NewBlogClient creates a blog client for the site in creds.
func NewBlogClient(creds Credentials, opts ...ClientOption) *BlogClient {
	return &BlogClient{
		Client:  newBaseClient(creds, opts...),
		baseURL: normalizeBaseURL(creds.BaseURL),
		now:     time.Now,
	}
}

// WithClock sets the time source used for createdAt (for testing)
func (c *BlogClient) WithClock(now func() time.Time) *BlogClient {
	c.now = now
	return c
}

type blogPostBody struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

type blogPostRequest struct {
	SpaceID   string       `json:"spaceId"`
	Status    string       `json:"status"`
	Title     string       `json:"title"`
	Body      blogPostBody `json:"body"`
	CreatedAt string       `json:"createdAt"`
}

// Create publishes a blog post in the given space. body is storage-format
// markup. createdAt is today's date in local time.
func (c *BlogClient) Create(ctx context.Context, spaceID, title, body string) (*Response, error) {
	payload, err := encodeJSON(blogPostRequest{
		SpaceID: spaceID,
		Status:  "current",
		Title:   title,
		Body: blogPostBody{
			Representation: "storage",
			Value:          body,
		},
		CreatedAt: c.now().Format(time.DateOnly),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode blog post: %w", err)
	}

	resp, err := c.Do(ctx, base.RequestConfig{
		Method:      http.MethodPost,
		URL:         c.baseURL + "/wiki/api/v2/blogposts",
		Body:        payload,
		ContentType: jsonContentType,
		Operation:   "create_blog_post",
	})
	metrics.RecordContentSize("create_blog_post", len(body))
	if err != nil {
		metrics.RecordEdit("create_blog_post", false)
		return nil, fmt.Errorf("create blog post in space %s: %w", spaceID, err)
	}
	if err := checkResponse(http.MethodPost, resp); err != nil {
		metrics.RecordEdit("create_blog_post", false)
		return nil, err
	}

	metrics.RecordEdit("create_blog_post", true)
	return resp, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
