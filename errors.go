package lexgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/internal/manifest"
	"github.com/hupe1980/lexgo/internal/segment"
	"github.com/hupe1980/lexgo/schema"
)

var (
	// ErrClosed is returned when operating on a closed index, writer or searcher.
	ErrClosed = errors.New("lexgo: closed")

	// ErrSchemaMismatch is returned when an existing index is opened with a
	// schema that differs from the committed one.
	ErrSchemaMismatch = errors.New("lexgo: schema mismatch")

	// ErrNoSchema is returned when a new index is created without a schema.
	ErrNoSchema = errors.New("lexgo: schema required to create an index")

	// ErrUnknownField is returned for field handles not part of the schema.
	ErrUnknownField = schema.ErrUnknownField

	// ErrFieldType is returned when a field does not support an operation,
	// e.g. a term lookup on a stored-only field.
	ErrFieldType = errors.New("lexgo: field does not support operation")

	// ErrNotFound is returned when a document or blob does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrCorrupt is returned when index data cannot be decoded.
	ErrCorrupt = segment.ErrCorrupt

	// ErrWriterLocked is returned when another writer holds the index.
	ErrWriterLocked = errors.New("lexgo: writer already open")
)

// ErrFieldTypeMismatch indicates a document value whose kind does not fit
// the type of its field.
type ErrFieldTypeMismatch = schema.ErrFieldTypeMismatch

// ErrSegment indicates a failure reading one segment.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrSegment struct {
	Segment string
	cause   error
}

func (e *ErrSegment) Error() string {
	return fmt.Sprintf("segment %s: %v", e.Segment, e.cause)
}

func (e *ErrSegment) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, segment.ErrDocOutOfRange) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, segment.ErrNotIndexed) || errors.Is(err, segment.ErrNotFast) {
		return fmt.Errorf("%w: %w", ErrFieldType, err)
	}
	if errors.Is(err, manifest.ErrIncompatibleVersion) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, blobstore.ErrLocked) {
		return fmt.Errorf("%w: %w", ErrWriterLocked, err)
	}

	return err
}
