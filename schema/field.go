package schema

import (
	"fmt"
	"strings"
)

// Field is the handle of a schema field.
type Field uint32

// String returns the string representation of the Field.
func (f Field) String() string {
	return fmt.Sprintf("Field(%d)", uint32(f))
}

// FieldType defines the value type of a field.
type FieldType uint8

const (
	// FieldTypeU64 is an unsigned 64-bit integer field.
	FieldTypeU64 FieldType = iota + 1
	// FieldTypeI64 is a signed 64-bit integer field.
	FieldTypeI64
	// FieldTypeF64 is a 64-bit float field.
	FieldTypeF64
	// FieldTypeText is a tokenized text field.
	FieldTypeText
	// FieldTypeStr is an untokenized string field. The whole value is one term.
	FieldTypeStr
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeU64:
		return "u64"
	case FieldTypeI64:
		return "i64"
	case FieldTypeF64:
		return "f64"
	case FieldTypeText:
		return "text"
	case FieldTypeStr:
		return "str"
	default:
		return "unknown"
	}
}

// ParseFieldType parses the names returned by FieldType.String.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(s) {
	case "u64":
		return FieldTypeU64, nil
	case "i64":
		return FieldTypeI64, nil
	case "f64":
		return FieldTypeF64, nil
	case "text":
		return FieldTypeText, nil
	case "str", "string":
		return FieldTypeStr, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// IsNumeric reports whether the type stores a 64-bit number.
func (t FieldType) IsNumeric() bool {
	return t == FieldTypeU64 || t == FieldTypeI64 || t == FieldTypeF64
}

// FieldOptions controls which structures are built for a field.
type FieldOptions uint8

const (
	// Indexed builds a term dictionary, postings and field norms.
	Indexed FieldOptions = 1 << iota
	// Positions records token positions. Only meaningful for text fields.
	Positions
	// Fast builds a columnar fast field.
	Fast
	// Stored keeps the original value in the document store.
	Stored
)

const (
	// TEXT is the option set for full-text fields.
	TEXT = Indexed | Positions
	// STRING is the option set for exact-match string fields.
	STRING = Indexed
)

// Has reports whether all bits of o2 are set.
func (o FieldOptions) Has(o2 FieldOptions) bool {
	return o&o2 == o2
}

// String returns a "|" separated list of the set options.
func (o FieldOptions) String() string {
	var parts []string
	for _, p := range optionNames {
		if o.Has(p.opt) {
			parts = append(parts, p.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

var optionNames = []struct {
	opt  FieldOptions
	name string
}{
	{Indexed, "indexed"},
	{Positions, "positions"},
	{Fast, "fast"},
	{Stored, "stored"},
}

// ParseFieldOptions parses option names such as "indexed", "fast" or the
// shorthand sets "text" and "string".
func ParseFieldOptions(names []string) (FieldOptions, error) {
	var o FieldOptions
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "indexed":
			o |= Indexed
		case "positions":
			o |= Positions
		case "fast":
			o |= Fast
		case "stored":
			o |= Stored
		case "text":
			o |= TEXT
		case "string":
			o |= STRING
		default:
			return 0, fmt.Errorf("unknown field option %q", n)
		}
	}
	return o, nil
}

// FieldEntry describes a single field of a schema.
type FieldEntry struct {
	Name    string       `json:"name"`
	Type    FieldType    `json:"type"`
	Options FieldOptions `json:"options"`
}

// IsIndexed reports whether the field has a term dictionary and postings.
func (e FieldEntry) IsIndexed() bool { return e.Options.Has(Indexed) }

// IsFast reports whether the field has a columnar fast field.
func (e FieldEntry) IsFast() bool { return e.Options.Has(Fast) }

// IsStored reports whether the field is kept in the document store.
func (e FieldEntry) IsStored() bool { return e.Options.Has(Stored) }

// HasPositions reports whether token positions are recorded.
// Positions only exist for indexed text fields.
func (e FieldEntry) HasPositions() bool {
	return e.Type == FieldTypeText && e.Options.Has(Indexed|Positions)
}
