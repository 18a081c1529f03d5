package internal

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id does not name a stored session.
var ErrSessionNotFound = errors.New("session not found")

// StorageError represents errors accessing the key/value store
type StorageError struct {
	Key string
	Op  string // "get", "set", "remove", "schema"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding persisted data
type ParseError struct {
	Source string // "sessions", "legacy", "uploads"
	Key    string // storage key
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-success response from the ask or upload endpoint.
// Body is the response text, used verbatim as the error detail.
type HTTPError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Endpoint == "upload" {
		return fmt.Sprintf("Upload failed (%d)", e.Status)
	}
	return fmt.Sprintf("Request failed (%d)", e.Status)
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
