package spaceusage

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/hupe1980/lexgo/schema"
)

// PerFieldSpaceUsage is the space used by one field oriented component
// (term dictionary, postings, positions, fast fields or field norms),
// broken down by field.
//
// Which component an instance describes is given by the SegmentSpaceUsage
// accessor it was obtained from.
type PerFieldSpaceUsage struct {
	fields map[schema.Field]*FieldUsage
	total  ByteCount
}

// NewPerFieldSpaceUsage indexes fields by their field handle and computes the
// total.
//
// Callers must pass at most one record per field. Duplicates are not detected:
// the map keeps the last record while the total counts all of them.
func NewPerFieldSpaceUsage(fields []*FieldUsage) *PerFieldSpaceUsage {
	p := &PerFieldSpaceUsage{
		fields: make(map[schema.Field]*FieldUsage, len(fields)),
	}
	for _, u := range fields {
		p.total += u.Total()
		p.fields[u.Field()] = u
	}
	return p
}

// Fields iterates over the per field records in no particular order.
func (p *PerFieldSpaceUsage) Fields() iter.Seq2[schema.Field, *FieldUsage] {
	return func(yield func(schema.Field, *FieldUsage) bool) {
		for f, u := range p.fields {
			if !yield(f, u) {
				return
			}
		}
	}
}

// Field returns the record for f, if f has any usage in this component.
func (p *PerFieldSpaceUsage) Field(f schema.Field) (*FieldUsage, bool) {
	u, ok := p.fields[f]
	return u, ok
}

// Len returns the number of fields with a record.
func (p *PerFieldSpaceUsage) Len() int {
	return len(p.fields)
}

// Total returns the bytes used by the component.
func (p *PerFieldSpaceUsage) Total() ByteCount {
	return p.total
}

// Clone returns a deep copy.
func (p *PerFieldSpaceUsage) Clone() *PerFieldSpaceUsage {
	c := &PerFieldSpaceUsage{
		fields: make(map[schema.Field]*FieldUsage, len(p.fields)),
		total:  p.total,
	}
	for f, u := range p.fields {
		c.fields[f] = u.Clone()
	}
	return c
}

func (*PerFieldSpaceUsage) isComponentSpaceUsage() {}

type perFieldJSON struct {
	Fields map[schema.Field]*FieldUsage `json:"fields"`
	Total  ByteCount                    `json:"total"`
}

// MarshalJSON implements json.Marshaler.
// Fields are keyed by their integer handle.
func (p *PerFieldSpaceUsage) MarshalJSON() ([]byte, error) {
	return json.Marshal(perFieldJSON{Fields: p.fields, Total: p.total})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PerFieldSpaceUsage) UnmarshalJSON(data []byte) error {
	var aux perFieldJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	decoded := NewPerFieldSpaceUsage(nil)
	decoded.fields = make(map[schema.Field]*FieldUsage, len(aux.Fields))
	for f, u := range aux.Fields {
		if u == nil {
			u = NewFieldUsage(f)
		}
		if u.Field() != f {
			return fmt.Errorf("%w: key %s holds usage of %s", ErrFieldKeyMismatch, f, u.Field())
		}
		decoded.fields[f] = u
		decoded.total += u.Total()
	}
	if decoded.total != aux.Total {
		return inconsistent("per field usage", aux.Total, decoded.total)
	}
	*p = *decoded
	return nil
}

// SortedFields returns the handles of all fields with a record in ascending order.
func (p *PerFieldSpaceUsage) SortedFields() []schema.Field {
	return slices.Sorted(maps.Keys(p.fields))
}
