package confluence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/olgasafonova/confluence-mcp-server/internal/base"
	"github.com/olgasafonova/confluence-mcp-server/metrics"
)

// AttachmentClient uploads files to existing content.
type AttachmentClient struct {
	*base.Client
	baseURL string

	// AllowedDir bounds the files UploadAttachmentMCP may read. Empty means
	// the working directory. Upload itself does not check it.
	AllowedDir string
}

// NewAttachmentClient creates an attachment client for the site in creds.
func NewAttachmentClient(creds Credentials, opts ...ClientOption) *AttachmentClient {
	return &AttachmentClient{
		Client:  newBaseClient(creds, opts...),
		baseURL: normalizeBaseURL(creds.BaseURL),
	}
}

// Upload attaches the file at filePath to the content item contentID.
// The file is read and closed before the request is sent; an unreadable file
// yields a *FileAccessError and no request.
func (c *AttachmentClient) Upload(ctx context.Context, contentID, filePath string) (*Response, error) {
	data, err := readAttachment(filePath)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	resp, err := c.Do(ctx, base.RequestConfig{
		Method:      http.MethodPost,
		URL:         fmt.Sprintf("%s/wiki/rest/api/content/%s/child/attachment", c.baseURL, url.PathEscape(contentID)),
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
		Headers:     map[string]string{"X-Atlassian-Token": "no-check"},
		Operation:   "upload_attachment",
	})
	metrics.AttachmentBytes.Observe(float64(len(data)))
	if err != nil {
		metrics.RecordEdit("upload_attachment", false)
		return nil, fmt.Errorf("upload %s to %s: %w", filepath.Base(filePath), contentID, err)
	}
	if err := checkResponse(http.MethodPost, resp); err != nil {
		metrics.RecordEdit("upload_attachment", false)
		return nil, err
	}

	metrics.RecordEdit("upload_attachment", true)
	return resp, nil
}

func readAttachment(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &FileAccessError{Path: path, Err: errors.New("is a directory")}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	return buf.Bytes(), nil
}
