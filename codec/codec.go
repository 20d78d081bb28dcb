// Package codec centralizes how lexgo encodes manifests and space usage
// reports (Index.SpaceUsageReport).
//
// Changing the codec of an existing index is a breaking change: the manifest
// records the codec name so that it can be reopened with the same codec.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Indenter is implemented by codecs that can produce indented output.
type Indenter interface {
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
}

// MarshalIndent encodes v with c, indented if c implements Indenter.
// A nil c uses Default.
func MarshalIndent(c Codec, v any, prefix, indent string) ([]byte, error) {
	if c == nil {
		c = Default
	}
	if i, ok := c.(Indenter); ok {
		return i.MarshalIndent(v, prefix, indent)
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	return b, nil
}
