// Package confluence reads and updates Confluence pages, creates blog posts
// and uploads attachments through the Confluence Cloud REST API.
package confluence

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/olgasafonova/confluence-mcp-server/internal/base"
)

// jsonContentType is sent with every JSON request body.
const jsonContentType = "application/json; charset=utf-8"

// ClientOption configures a client (re-export base.ClientOption)
type ClientOption = base.ClientOption

// Response is the raw result of a create or upload call.
type Response = base.Response

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return base.WithHTTPClient(c)
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return base.WithLogger(l)
}

// WithTimeout sets the overall request timeout
func WithTimeout(d time.Duration) ClientOption {
	return base.WithTimeout(d)
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return base.WithUserAgent(ua)
}

// newBaseClient applies opts and then the credentials, so credentials
// passed to a factory always win over an option.
func newBaseClient(creds Credentials, opts ...ClientOption) *base.Client {
	all := append([]ClientOption{}, opts...)
	all = append(all, base.WithBasicAuth(creds.Email, creds.Token))
	return base.NewClient(all...)
}

// checkResponse turns any status other than 200 into a *RequestError.
func checkResponse(method string, resp *base.Response) error {
	if resp.StatusCode != http.StatusOK {
		return &RequestError{
			Method:     method,
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			Body:       resp.Text(),
		}
	}
	return nil
}
