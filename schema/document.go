package schema

import (
	"fmt"
	"math"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindU64 represents an unsigned integer.
	KindU64 Kind = iota + 1
	// KindI64 represents a signed integer.
	KindI64
	// KindF64 represents a float.
	KindF64
	// KindString represents a string (text or str fields).
	KindString
)

// Value is a typed field value.
type Value struct {
	Kind Kind
	U64  uint64
	I64  int64
	F64  float64
	Str  string
}

// U64 creates an unsigned integer value.
func U64(v uint64) Value { return Value{Kind: KindU64, U64: v} }

// I64 creates a signed integer value.
func I64(v int64) Value { return Value{Kind: KindI64, I64: v} }

// F64 creates a float value.
func F64(v float64) Value { return Value{Kind: KindF64, F64: v} }

// String creates a string value.
func String(v string) Value { return Value{Kind: KindString, Str: v} }

// SortableBits maps the value to a uint64 whose unsigned order matches the
// natural order of the value. It is used for numeric terms and fast fields.
func (v Value) SortableBits() uint64 {
	switch v.Kind {
	case KindU64:
		return v.U64
	case KindI64:
		return uint64(v.I64) ^ (1 << 63)
	case KindF64:
		bits := math.Float64bits(v.F64)
		if bits&(1<<63) != 0 {
			return ^bits
		}
		return bits | (1 << 63)
	default:
		return 0
	}
}

// Matches reports whether the value kind is valid for the field type.
func (v Value) Matches(t FieldType) bool {
	switch t {
	case FieldTypeU64:
		return v.Kind == KindU64
	case FieldTypeI64:
		return v.Kind == KindI64
	case FieldTypeF64:
		return v.Kind == KindF64
	case FieldTypeText, FieldTypeStr:
		return v.Kind == KindString
	default:
		return false
	}
}

// String returns a human-readable form of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindU64:
		return fmt.Sprintf("%d", v.U64)
	case KindI64:
		return fmt.Sprintf("%d", v.I64)
	case KindF64:
		return fmt.Sprintf("%g", v.F64)
	case KindString:
		return v.Str
	default:
		return "<invalid>"
	}
}

// FieldValue pairs a field with one of its values.
type FieldValue struct {
	Field Field
	Value Value
}

// Document is an ordered list of field values. A field may appear more than once.
type Document struct {
	Values []FieldValue
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Add appends a value for f.
func (d *Document) Add(f Field, v Value) *Document {
	d.Values = append(d.Values, FieldValue{Field: f, Value: v})
	return d
}

// AddU64 appends an unsigned integer value.
func (d *Document) AddU64(f Field, v uint64) *Document { return d.Add(f, U64(v)) }

// AddI64 appends a signed integer value.
func (d *Document) AddI64(f Field, v int64) *Document { return d.Add(f, I64(v)) }

// AddF64 appends a float value.
func (d *Document) AddF64(f Field, v float64) *Document { return d.Add(f, F64(v)) }

// AddText appends a string value for a text or str field.
func (d *Document) AddText(f Field, v string) *Document { return d.Add(f, String(v)) }

// Get returns the first value for f.
func (d *Document) Get(f Field) (Value, bool) {
	for _, fv := range d.Values {
		if fv.Field == f {
			return fv.Value, true
		}
	}
	return Value{}, false
}

// Validate checks that every value belongs to a known field of s and has a
// kind compatible with the field type.
func (d *Document) Validate(s *Schema) error {
	for _, fv := range d.Values {
		e, err := s.Entry(fv.Field)
		if err != nil {
			return err
		}
		if !fv.Value.Matches(e.Type) {
			return &ErrFieldTypeMismatch{Field: e.Name, Expected: e.Type, Actual: fv.Value.Kind}
		}
	}
	return nil
}

// ErrFieldTypeMismatch indicates a value whose kind does not fit its field.
type ErrFieldTypeMismatch struct {
	Field    string
	Expected FieldType
	Actual   Kind
}

func (e *ErrFieldTypeMismatch) Error() string {
	return fmt.Sprintf("field %q: value kind %d does not match type %s", e.Field, e.Actual, e.Expected)
}
