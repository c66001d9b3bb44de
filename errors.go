package nimsforestpdfviewer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is logged when a setter rejects a value. It is never
	// returned to callers; the rejected value only shows up in RawState.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled is the failure of an operation stopped by CancelLoad or
	// replaced by a newer LoadDocument.
	ErrCancelled = errors.New("load cancelled")

	// ErrNoProvider is returned by LoadDocument when no DocumentProvider
	// is configured.
	ErrNoProvider = errors.New("no document provider set")
)

// DocumentLoadError reports a failure of the provider to resolve a document.
type DocumentLoadError struct {
	URL string
	Err error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("load document %q: %v", e.URL, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// PageLoadError reports a failure to fetch a page.
type PageLoadError struct {
	Page int
	Err  error
}

func (e *PageLoadError) Error() string {
	return fmt.Sprintf("load page %d: %v", e.Page, e.Err)
}

func (e *PageLoadError) Unwrap() error { return e.Err }

// RenderError reports a failure to paint a page.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
