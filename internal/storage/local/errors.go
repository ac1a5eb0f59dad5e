package local

import "errors"

var (
	// ErrNotFound means no document exists for the collection and id
	ErrNotFound = errors.New("document not found")

	// ErrCorrupt means the document exists but is not valid JSON
	ErrCorrupt = errors.New("document corrupt")
)
