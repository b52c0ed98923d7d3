package confluence

// ClientFactory builds clients that share one set of credentials and options.
type ClientFactory struct {
	creds         Credentials
	opts          []ClientOption
	attachmentDir string
}

// NewClientFactory creates a factory. creds is copied; later changes to the
// caller's value do not affect clients built from the factory.
func NewClientFactory(creds Credentials, opts ...ClientOption) *ClientFactory {
	return &ClientFactory{
		creds: creds,
		opts:  append([]ClientOption(nil), opts...),
	}
}

// NewClientFactoryFromConfig creates a factory from a loaded Config. The
// config's timeout and user agent come before opts, so opts can override them.
func NewClientFactoryFromConfig(cfg *Config, opts ...ClientOption) *ClientFactory {
	all := []ClientOption{WithTimeout(cfg.Timeout)}
	if cfg.UserAgent != "" {
		all = append(all, WithUserAgent(cfg.UserAgent))
	}
	all = append(all, opts...)
	f := NewClientFactory(cfg.Credentials(), all...)
	f.attachmentDir = cfg.AttachmentDir
	return f
}

// Credentials returns the factory's credentials.
func (f *ClientFactory) Credentials() Credentials {
	return f.creds
}

// PageClient creates a page client.
func (f *ClientFactory) PageClient() *PageClient {
	return NewPageClient(f.creds, f.opts...)
}

// BlogClient creates a blog post client.
func (f *ClientFactory) BlogClient() *BlogClient {
	return NewBlogClient(f.creds, f.opts...)
}

// AttachmentClient creates an attachment client restricted to the
// configured attachment directory.
func (f *ClientFactory) AttachmentClient() *AttachmentClient {
	c := NewAttachmentClient(f.creds, f.opts...)
	c.AllowedDir = f.attachmentDir
	return c
}
