package spaceusage

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexgo/schema"
)

// ErrInconsistentTotal is returned when decoding a report whose stored total
// differs from the sum of its parts.
var ErrInconsistentTotal = errors.New("space usage total does not match its parts")

// ErrFieldKeyMismatch is returned when decoding a per-field report whose map
// key differs from the field recorded in the usage it maps to.
var ErrFieldKeyMismatch = errors.New("space usage field key does not match its usage")

// DuplicateSubIndexError is the panic value raised by FieldUsage.Record when a
// sub index is recorded twice. It indicates a bug in the measuring reader.
type DuplicateSubIndexError struct {
	Field    schema.Field
	Index    int
	Existing ByteCount
}

func (e *DuplicateSubIndexError) Error() string {
	return fmt.Sprintf("space usage for %s sub index %d already recorded (%d bytes)", e.Field, e.Index, e.Existing)
}

func inconsistent(what string, stored, computed ByteCount) error {
	return fmt.Errorf("%w: %s stores %d, parts sum to %d", ErrInconsistentTotal, what, stored, computed)
}
