package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrNoData signals that a read query matched no rows. It is a normal
	// outcome for aggregate queries, not a failure.
	ErrNoData = errors.New("no data")
)
