package confluence

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeout for API requests when none is configured
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to the Confluence site
	DefaultUserAgent = "ConfluenceMCPServer/1.0 (https://github.com/olgasafonova/confluence-mcp-server)"
)

// Credentials identify a user on a Confluence site. The value is copied into
// every client built by one factory and never changes afterwards.
type Credentials struct {
	Email   string
	Token   string
	BaseURL string
}

// Config holds Confluence connection settings
type Config struct {
	// BaseURL is the site root (e.g., https://example.atlassian.net)
	BaseURL string `yaml:"base_url"`

	// Email of the account the API token belongs to
	Email string `yaml:"email"`

	// APIToken used as the basic auth password
	APIToken string `yaml:"api_token"`

	// Timeout for API requests
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent identifies the client to the site
	UserAgent string `yaml:"user_agent"`

	// JournalPath is the SQLite file recording write operations (optional)
	JournalPath string `yaml:"journal_path"`

	// AttachmentDir is the only directory uploads may read from.
	// Empty means the working directory.
	AttachmentDir string `yaml:"attachment_dir"`
}

// DefaultConfig returns a Config with defaults applied and no site set.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	applyEnv(cfg)
	if cfg.BaseURL == "" {
		return nil, errors.New("CONFLUENCE_URL environment variable is required")
	}
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)
	return cfg, cfg.Validate()
}

// LoadConfigFile reads a YAML config file on top of the defaults.
// Environment variables, when set, override values from the file.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(cfg)
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONFLUENCE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CONFLUENCE_EMAIL"); v != "" {
		cfg.Email = v
	}
	if v := os.Getenv("CONFLUENCE_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if t := os.Getenv("CONFLUENCE_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("CONFLUENCE_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("CONFLUENCE_JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("CONFLUENCE_ATTACHMENT_DIR"); v != "" {
		cfg.AttachmentDir = v
	}
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url %q has no host", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	return nil
}

// HasCredentials returns true if authentication credentials are configured
func (c *Config) HasCredentials() bool {
	return c.Email != "" && c.APIToken != ""
}

// Credentials returns the credential value used to build clients
func (c *Config) Credentials() Credentials {
	return Credentials{
		Email:   c.Email,
		Token:   c.APIToken,
		BaseURL: c.BaseURL,
	}
}

// normalizeBaseURL drops trailing slashes so endpoint paths can be appended directly.
func normalizeBaseURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
