package manifest

import "errors"

var (
	// ErrIncompatibleVersion is returned when the meta format version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible index meta version")

	// ErrNotFound is returned when no meta has been committed yet.
	ErrNotFound = errors.New("index meta not found")
)
