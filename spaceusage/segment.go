package spaceusage

import (
	"encoding/json"
	"fmt"
)

// SegmentSpaceUsage is the space used by all large components of one segment.
type SegmentSpaceUsage struct {
	numDocs uint32

	termdict   *PerFieldSpaceUsage
	postings   *PerFieldSpaceUsage
	positions  *PerFieldSpaceUsage
	fastFields *PerFieldSpaceUsage
	fieldnorms *PerFieldSpaceUsage

	store StoreSpaceUsage

	deletes ByteCount

	total ByteCount
}

// NewSegmentSpaceUsage combines the usage of every component of a segment.
// numDocs is taken as given and not checked against the components.
// Nil per field usages are treated as empty.
func NewSegmentSpaceUsage(
	numDocs uint32,
	termdict, postings, positions, fastFields, fieldnorms *PerFieldSpaceUsage,
	store StoreSpaceUsage,
	deletes ByteCount,
) *SegmentSpaceUsage {
	s := &SegmentSpaceUsage{
		numDocs:    numDocs,
		termdict:   orEmpty(termdict),
		postings:   orEmpty(postings),
		positions:  orEmpty(positions),
		fastFields: orEmpty(fastFields),
		fieldnorms: orEmpty(fieldnorms),
		store:      store,
		deletes:    deletes,
	}
	s.total = s.termdict.Total() +
		s.postings.Total() +
		s.positions.Total() +
		s.fastFields.Total() +
		s.fieldnorms.Total() +
		s.store.Total() +
		s.deletes
	return s
}

func orEmpty(p *PerFieldSpaceUsage) *PerFieldSpaceUsage {
	if p == nil {
		return NewPerFieldSpaceUsage(nil)
	}
	return p
}

// Component returns a copy of the usage of the given component.
//
// The per field maps are cloned, so this is not meant for hot paths. Use the
// typed accessors to read the usage without copying.
func (s *SegmentSpaceUsage) Component(c SegmentComponent) ComponentSpaceUsage {
	switch c {
	case Postings:
		return s.postings.Clone()
	case Positions:
		return s.positions.Clone()
	case FastFields:
		return s.fastFields.Clone()
	case FieldNorms:
		return s.fieldnorms.Clone()
	case Terms:
		return s.termdict.Clone()
	case Store, TempStore:
		return s.store
	case Delete:
		return s.deletes
	default:
		panic(fmt.Sprintf("spaceusage: unknown segment component %s", c))
	}
}

// ComponentTotal returns the total of the given component without copying.
func (s *SegmentSpaceUsage) ComponentTotal(c SegmentComponent) ByteCount {
	switch c {
	case Postings:
		return s.postings.Total()
	case Positions:
		return s.positions.Total()
	case FastFields:
		return s.fastFields.Total()
	case FieldNorms:
		return s.fieldnorms.Total()
	case Terms:
		return s.termdict.Total()
	case Store, TempStore:
		return s.store.Total()
	case Delete:
		return s.deletes
	default:
		panic(fmt.Sprintf("spaceusage: unknown segment component %s", c))
	}
}

// NumDocs returns the number of documents in the segment.
func (s *SegmentSpaceUsage) NumDocs() uint32 { return s.numDocs }

// Termdict returns the space used by the term dictionary.
func (s *SegmentSpaceUsage) Termdict() *PerFieldSpaceUsage { return s.termdict }

// Postings returns the space used by postings lists.
func (s *SegmentSpaceUsage) Postings() *PerFieldSpaceUsage { return s.postings }

// Positions returns the space used by positions.
func (s *SegmentSpaceUsage) Positions() *PerFieldSpaceUsage { return s.positions }

// FastFields returns the space used by fast fields.
func (s *SegmentSpaceUsage) FastFields() *PerFieldSpaceUsage { return s.fastFields }

// Fieldnorms returns the space used by field norms.
func (s *SegmentSpaceUsage) Fieldnorms() *PerFieldSpaceUsage { return s.fieldnorms }

// Store returns the space used by stored documents.
func (s *SegmentSpaceUsage) Store() StoreSpaceUsage { return s.store }

// Deletes returns the space used by the delete bitset.
func (s *SegmentSpaceUsage) Deletes() ByteCount { return s.deletes }

// Total returns the space used by the segment.
func (s *SegmentSpaceUsage) Total() ByteCount { return s.total }

type segmentJSON struct {
	NumDocs    uint32              `json:"num_docs"`
	Termdict   *PerFieldSpaceUsage `json:"termdict"`
	Postings   *PerFieldSpaceUsage `json:"postings"`
	Positions  *PerFieldSpaceUsage `json:"positions"`
	FastFields *PerFieldSpaceUsage `json:"fast_fields"`
	Fieldnorms *PerFieldSpaceUsage `json:"fieldnorms"`
	Store      StoreSpaceUsage     `json:"store"`
	Deletes    ByteCount           `json:"deletes"`
	Total      ByteCount           `json:"total"`
}

// MarshalJSON implements json.Marshaler.
func (s *SegmentSpaceUsage) MarshalJSON() ([]byte, error) {
	return json.Marshal(segmentJSON{
		NumDocs:    s.numDocs,
		Termdict:   s.termdict,
		Postings:   s.postings,
		Positions:  s.positions,
		FastFields: s.fastFields,
		Fieldnorms: s.fieldnorms,
		Store:      s.store,
		Deletes:    s.deletes,
		Total:      s.total,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SegmentSpaceUsage) UnmarshalJSON(data []byte) error {
	var aux segmentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	decoded := NewSegmentSpaceUsage(aux.NumDocs, aux.Termdict, aux.Postings, aux.Positions,
		aux.FastFields, aux.Fieldnorms, aux.Store, aux.Deletes)
	if decoded.total != aux.Total {
		return inconsistent("segment usage", aux.Total, decoded.total)
	}
	*s = *decoded
	return nil
}
