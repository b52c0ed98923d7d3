package confluence

import (
	"errors"
	"fmt"
)

// ErrVersionMissing is returned when a page document lacks a usable
// version.number or version._links.self field.
var ErrVersionMissing = errors.New("page version fields missing or malformed")

// ErrBodyMissing is returned when a page document has no body.storage.value string.
var ErrBodyMissing = errors.New("page body.storage.value missing or not a string")

// ErrInvalidContent is returned when a content tree cannot be serialized,
// for example a void element such as <br> that was given children.
var ErrInvalidContent = errors.New("page content cannot be serialized")

// RequestError is returned for any response whose status is not 200.
// It is the only HTTP failure kind; callers inspect StatusCode to tell
// a missing page from a permission problem.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed for url %s: %d %s", e.URL, e.StatusCode, e.Body)
}

// IsRequestError returns true if err is or wraps a RequestError.
func IsRequestError(err error) bool {
	var target *RequestError
	return errors.As(err, &target)
}

// FileAccessError is returned when an attachment cannot be read from disk.
// No request is sent in that case.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot read attachment %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// IsFileAccessError returns true if err is or wraps a FileAccessError.
func IsFileAccessError(err error) bool {
	var target *FileAccessError
	return errors.As(err, &target)
}
