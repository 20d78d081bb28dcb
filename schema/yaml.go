package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML representation of a schema:
//
//	fields:
//	  - name: title
//	    type: text
//	    options: [text, stored]
//	  - name: price
//	    type: u64
//	    options: [indexed, fast]
type File struct {
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec is a single field in a schema file.
type FieldSpec struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Options []string `yaml:"options"`
}

// LoadYAML reads a schema definition from r.
func LoadYAML(r io.Reader) (*Schema, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return NewBuilder().Build()
		}
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return f.Build()
}

// LoadYAMLFile reads a schema definition from the file at path.
func LoadYAMLFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}

// Build converts the file into a Schema.
func (f File) Build() (*Schema, error) {
	b := NewBuilder()
	for _, spec := range f.Fields {
		t, err := ParseFieldType(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", spec.Name, err)
		}
		opts, err := ParseFieldOptions(spec.Options)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", spec.Name, err)
		}
		b.add(FieldEntry{Name: spec.Name, Type: t, Options: opts})
	}
	return b.Build()
}

// ToFile converts s into its YAML representation.
func (s *Schema) ToFile() File {
	f := File{Fields: make([]FieldSpec, 0, s.Len())}
	for _, e := range s.Fields() {
		var names []string
		for _, p := range optionNames {
			if e.Options.Has(p.opt) {
				names = append(names, p.name)
			}
		}
		f.Fields = append(f.Fields, FieldSpec{Name: e.Name, Type: e.Type.String(), Options: names})
	}
	return f
}

// MarshalYAML implements yaml.Marshaler.
func (s *Schema) MarshalYAML() (any, error) {
	return s.ToFile(), nil
}
