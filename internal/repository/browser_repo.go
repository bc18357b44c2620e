package repository

import (
	"context"
	"errors"
)

var (
	// ErrElementNotFound is returned by Tab lookups when no node matches the
	// selector, or the matched node cannot be interacted with yet.
	ErrElementNotFound = errors.New("element not found")
	// ErrNavigationFailed wraps errors from loading a page.
	ErrNavigationFailed = errors.New("navigation failed")
)

// SelectorKind tells a Tab how to interpret a selector string.
type SelectorKind int

const (
	ByQuery SelectorKind = iota // CSS selector
	ByXPath
)

// Selector locates nodes in a rendered page.
type Selector struct {
	Value string
	Kind  SelectorKind
}

// Browser is a long-lived browser process. Close releases it.
type Browser interface {
	// NewTab opens a fresh page target. The caller must Close it.
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Tab is one page target. Every method is a single check against the current
// DOM and returns promptly; waiting is the caller's job.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	// Text returns the text content of the first matching node.
	Text(ctx context.Context, sel Selector) (string, error)
	// Click clicks the first matching node if it is present and enabled.
	Click(ctx context.Context, sel Selector) error
	// Count returns the number of matching nodes.
	Count(ctx context.Context, sel Selector) (int, error)
	// HTML returns the current outer HTML of the document.
	HTML(ctx context.Context) (string, error)
	Close() error
}
