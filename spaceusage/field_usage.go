package spaceusage

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/lexgo/schema"
)

// FieldUsage is the space used by one field inside one component.
//
// A field can be stored as several pieces, for example the offsets and the data
// of a variable length column. Pieces are addressed by a sub index starting at
// zero. Total always includes every recorded piece.
type FieldUsage struct {
	field       schema.Field
	numBytes    ByteCount
	subNumBytes []OptionalByteCount
}

// NewFieldUsage returns an empty usage record for field.
func NewFieldUsage(field schema.Field) *FieldUsage {
	return &FieldUsage{field: field}
}

// Record sets the size of sub part idx and adds it to the total.
//
// Each idx may be recorded once. Recording it again panics with a
// *DuplicateSubIndexError and leaves the record unchanged.
func (u *FieldUsage) Record(idx int, size ByteCount) {
	if idx < 0 {
		panic(fmt.Sprintf("spaceusage: negative sub index %d for %s", idx, u.field))
	}
	if idx < len(u.subNumBytes) {
		if prev := u.subNumBytes[idx]; prev.Present {
			panic(&DuplicateSubIndexError{Field: u.field, Index: idx, Existing: prev.Bytes})
		}
	} else {
		grown := make([]OptionalByteCount, idx+1)
		copy(grown, u.subNumBytes)
		u.subNumBytes = grown
	}
	u.subNumBytes[idx] = Some(size)
	u.numBytes += size
}

// Field returns the field this record belongs to.
func (u *FieldUsage) Field() schema.Field {
	return u.field
}

// SubNumBytes returns a copy of the per sub index sizes.
// Slots that were never recorded are not present.
func (u *FieldUsage) SubNumBytes() []OptionalByteCount {
	out := make([]OptionalByteCount, len(u.subNumBytes))
	copy(out, u.subNumBytes)
	return out
}

// Total returns the bytes used by the field in this component.
func (u *FieldUsage) Total() ByteCount {
	return u.numBytes
}

// Clone returns a deep copy.
func (u *FieldUsage) Clone() *FieldUsage {
	return &FieldUsage{
		field:       u.field,
		numBytes:    u.numBytes,
		subNumBytes: u.SubNumBytes(),
	}
}

type fieldUsageJSON struct {
	Field       schema.Field        `json:"field"`
	NumBytes    ByteCount           `json:"num_bytes"`
	SubNumBytes []OptionalByteCount `json:"sub_num_bytes"`
}

// MarshalJSON implements json.Marshaler.
func (u *FieldUsage) MarshalJSON() ([]byte, error) {
	sub := u.subNumBytes
	if sub == nil {
		sub = []OptionalByteCount{}
	}
	return json.Marshal(fieldUsageJSON{Field: u.field, NumBytes: u.numBytes, SubNumBytes: sub})
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *FieldUsage) UnmarshalJSON(data []byte) error {
	var aux fieldUsageJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	decoded := NewFieldUsage(aux.Field)
	for i, s := range aux.SubNumBytes {
		if s.Present {
			decoded.Record(i, s.Bytes)
		}
	}
	if len(aux.SubNumBytes) > len(decoded.subNumBytes) {
		// Keep trailing absent slots.
		grown := make([]OptionalByteCount, len(aux.SubNumBytes))
		copy(grown, decoded.subNumBytes)
		decoded.subNumBytes = grown
	}
	if decoded.numBytes != aux.NumBytes {
		return inconsistent(fmt.Sprintf("field usage of %s", aux.Field), aux.NumBytes, decoded.numBytes)
	}
	*u = *decoded
	return nil
}
