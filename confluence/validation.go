package confluence

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	apierrors "github.com/olgasafonova/confluence-mcp-server/internal/errors"
)

// MaxTitleLength is the longest title Confluence accepts
const MaxTitleLength = 255

var (
	contentIDRegex = regexp.MustCompile(`^\d+$`)
	tagNameRegex   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*(:[a-zA-Z][a-zA-Z0-9-]*)?$`)
	attrNameRegex  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.:-]*$`)
)

// ValidateContentID checks a page, blog post or space ID.
// Confluence Cloud IDs are decimal strings.
func ValidateContentID(field, id string) error {
	if id == "" {
		return apierrors.NewValidationError(field, "", "is required")
	}
	if !contentIDRegex.MatchString(id) {
		return apierrors.NewValidationError(field, id, "must contain only digits")
	}
	return nil
}

// ValidateFormat checks a GetPageArgs format. Empty means storage.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatStorage, FormatMarkdown, FormatHTML, FormatPretty:
		return nil
	}
	return apierrors.NewValidationError("format", format, "must be one of storage, markdown, html, pretty")
}

// ValidateTagName checks an element name, allowing one namespace prefix
// such as ac: or ri:.
func ValidateTagName(tag string) error {
	if tag == "" {
		return apierrors.NewValidationError("tag", "", "is required")
	}
	if !tagNameRegex.MatchString(tag) {
		return apierrors.NewValidationError("tag", tag, "is not a valid element name")
	}
	return nil
}

// ValidateAttributeName checks an attribute name used for lookup or creation.
func ValidateAttributeName(field, name string) error {
	if name == "" {
		return apierrors.NewValidationError(field, "", "is required")
	}
	if !attrNameRegex.MatchString(name) {
		return apierrors.NewValidationError(field, name, "is not a valid attribute name")
	}
	return nil
}

// ValidateTitle checks a blog post title.
func ValidateTitle(title string) error {
	if title == "" {
		return apierrors.NewValidationError("title", "", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apierrors.NewValidationError("title", "", "must be at most 255 characters")
	}
	return nil
}

// ValidateFilePath checks an attachment path is present and, after symlinks
// are resolved, lies inside allowedDir. An empty allowedDir means the
// working directory.
func ValidateFilePath(path, allowedDir string) error {
	_, err := resolveAttachmentPath(path, allowedDir)
	return err
}

// resolveAttachmentPath returns the absolute, symlink-free form of path once
// it is known to be inside allowedDir.
func resolveAttachmentPath(path, allowedDir string) (string, error) {
	if path == "" {
		return "", apierrors.NewValidationError("file_path", "", "is required")
	}
	if allowedDir == "" {
		allowedDir = "."
	}

	dir, err := resolvePath(allowedDir)
	if err != nil {
		return "", &FileAccessError{Path: allowedDir, Err: err}
	}
	target, err := resolvePath(path)
	if err != nil {
		return "", &FileAccessError{Path: path, Err: err}
	}

	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apierrors.NewValidationError("file_path", path, "must be inside the attachment directory")
	}
	return target, nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
