package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrUnknownField is returned when a field handle or name is not part of the schema.
	ErrUnknownField = errors.New("unknown field")
	// ErrDuplicateField is returned by Build when two fields share a name.
	ErrDuplicateField = errors.New("duplicate field name")
)

// Schema is an immutable, ordered list of field entries.
// The position of an entry is its Field handle.
type Schema struct {
	entries []FieldEntry
	byName  map[string]Field
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.entries)
}

// Entry returns the entry for f.
func (s *Schema) Entry(f Field) (FieldEntry, error) {
	if int(f) >= len(s.entries) {
		return FieldEntry{}, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	return s.entries[f], nil
}

// FieldByName looks up a field handle by name.
func (s *Schema) FieldByName(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Fields iterates over all fields in declaration order.
func (s *Schema) Fields() iter.Seq2[Field, FieldEntry] {
	return func(yield func(Field, FieldEntry) bool) {
		for i, e := range s.entries {
			if !yield(Field(i), e) {
				return
			}
		}
	}
}

// Equal reports whether both schemas declare the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.entries) != len(other.entries) {
		return false
	}
	for i := range s.entries {
		if s.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.entries)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var entries []FieldEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	b := NewBuilder()
	for _, e := range entries {
		b.add(e)
	}
	built, err := b.Build()
	if err != nil {
		return err
	}
	*s = *built
	return nil
}

// Builder collects field declarations.
// It is not safe for concurrent use.
type Builder struct {
	entries []FieldEntry
}

// NewBuilder creates an empty schema builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddU64Field declares an unsigned integer field.
func (b *Builder) AddU64Field(name string, opts FieldOptions) Field {
	return b.add(FieldEntry{Name: name, Type: FieldTypeU64, Options: opts})
}

// AddI64Field declares a signed integer field.
func (b *Builder) AddI64Field(name string, opts FieldOptions) Field {
	return b.add(FieldEntry{Name: name, Type: FieldTypeI64, Options: opts})
}

// AddF64Field declares a float field.
func (b *Builder) AddF64Field(name string, opts FieldOptions) Field {
	return b.add(FieldEntry{Name: name, Type: FieldTypeF64, Options: opts})
}

// AddTextField declares a tokenized text field.
func (b *Builder) AddTextField(name string, opts FieldOptions) Field {
	return b.add(FieldEntry{Name: name, Type: FieldTypeText, Options: opts})
}

// AddStrField declares an untokenized string field.
func (b *Builder) AddStrField(name string, opts FieldOptions) Field {
	return b.add(FieldEntry{Name: name, Type: FieldTypeStr, Options: opts})
}

func (b *Builder) add(e FieldEntry) Field {
	b.entries = append(b.entries, e)
	return Field(len(b.entries) - 1)
}

// Build validates the declarations and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	s := &Schema{
		entries: make([]FieldEntry, len(b.entries)),
		byName:  make(map[string]Field, len(b.entries)),
	}
	copy(s.entries, b.entries)
	for i, e := range s.entries {
		if e.Name == "" {
			return nil, fmt.Errorf("field %d: empty name", i)
		}
		if _, ok := s.byName[e.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, e.Name)
		}
		s.byName[e.Name] = Field(i)
	}
	return s, nil
}
