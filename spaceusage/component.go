package spaceusage

import "fmt"

// SegmentComponent identifies one of the files a segment is made of.
type SegmentComponent uint8

const (
	// Postings holds the document lists of every term.
	Postings SegmentComponent = iota
	// Positions holds token positions for phrase queries.
	Positions
	// FastFields holds columnar field values.
	FastFields
	// FieldNorms holds per document field lengths used for scoring.
	FieldNorms
	// Terms holds the term dictionary.
	Terms
	// Store holds the stored documents.
	Store
	// TempStore is the staging store used while a segment is being written.
	// It is accounted for as Store.
	TempStore
	// Delete holds the bitset of deleted documents.
	Delete
)

// Components returns every component kind.
func Components() []SegmentComponent {
	return []SegmentComponent{Postings, Positions, FastFields, FieldNorms, Terms, Store, TempStore, Delete}
}

// String returns the string representation of the component.
func (c SegmentComponent) String() string {
	switch c {
	case Postings:
		return "postings"
	case Positions:
		return "positions"
	case FastFields:
		return "fast_fields"
	case FieldNorms:
		return "fieldnorms"
	case Terms:
		return "terms"
	case Store:
		return "store"
	case TempStore:
		return "temp_store"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("SegmentComponent(%d)", uint8(c))
	}
}

// ComponentSpaceUsage is the space usage of a single segment component.
//
// It is one of exactly three shapes, which callers distinguish with a type
// switch:
//
//	switch u := usage.(type) {
//	case *spaceusage.PerFieldSpaceUsage: // terms, postings, positions, fast fields, field norms
//	case spaceusage.StoreSpaceUsage:     // store and temp store
//	case spaceusage.ByteCount:           // deletes
//	}
type ComponentSpaceUsage interface {
	// Total returns the bytes used by the component.
	Total() ByteCount

	isComponentSpaceUsage()
}

var (
	_ ComponentSpaceUsage = (*PerFieldSpaceUsage)(nil)
	_ ComponentSpaceUsage = StoreSpaceUsage{}
	_ ComponentSpaceUsage = ByteCount(0)
)
