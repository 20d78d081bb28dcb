package segment

import "errors"

// ErrCorrupt is returned when a component blob cannot be decoded.
var ErrCorrupt = errors.New("segment: corrupt data")

// ErrDocOutOfRange is returned for document ids not below MaxDoc.
var ErrDocOutOfRange = errors.New("segment: doc id out of range")

// ErrNotIndexed is returned for term lookups on fields without an index.
var ErrNotIndexed = errors.New("segment: field is not indexed")

// ErrNotFast is returned for fast field reads on fields without a column.
var ErrNotFast = errors.New("segment: field is not a fast field")
