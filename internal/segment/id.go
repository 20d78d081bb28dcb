package segment

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/lexgo/spaceusage"
)

// ID identifies a segment. It is the 32 character hex form of a random UUID.
type ID string

// NewID returns a fresh random segment id.
func NewID() ID {
	u := uuid.New()
	return ID(hex.EncodeToString(u[:]))
}

// Short returns the first eight characters, used in logs.
func (id ID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Component extensions of the blobs that make up a segment.
const (
	extTerms      = "term"
	extPostings   = "idx"
	extPositions  = "pos"
	extFastFields = "fast"
	extFieldNorms = "fieldnorm"
	extStore      = "store"
	extDelete     = "del"
)

// Filename returns the blob name of component c. delGen is only used for
// spaceusage.Delete. TempStore shares the store file.
func Filename(id ID, c spaceusage.SegmentComponent, delGen uint64) string {
	switch c {
	case spaceusage.Terms:
		return fmt.Sprintf("%s.%s", id, extTerms)
	case spaceusage.Postings:
		return fmt.Sprintf("%s.%s", id, extPostings)
	case spaceusage.Positions:
		return fmt.Sprintf("%s.%s", id, extPositions)
	case spaceusage.FastFields:
		return fmt.Sprintf("%s.%s", id, extFastFields)
	case spaceusage.FieldNorms:
		return fmt.Sprintf("%s.%s", id, extFieldNorms)
	case spaceusage.Store, spaceusage.TempStore:
		return fmt.Sprintf("%s.%s", id, extStore)
	case spaceusage.Delete:
		return fmt.Sprintf("%s.%d.%s", id, delGen, extDelete)
	default:
		panic(fmt.Sprintf("segment: unknown component %s", c))
	}
}

// IsSegmentFile reports whether name is a component blob of some segment
// and returns the segment id.
func IsSegmentFile(name string) (ID, bool) {
	id, ext, ok := strings.Cut(name, ".")
	if !ok || len(id) != 32 {
		return "", false
	}
	if _, err := hex.DecodeString(id); err != nil {
		return "", false
	}
	switch ext {
	case extTerms, extPostings, extPositions, extFastFields, extFieldNorms, extStore:
		return ID(id), true
	}
	gen, kind, ok := strings.Cut(ext, ".")
	if !ok || kind != extDelete || gen == "" || strings.Trim(gen, "0123456789") != "" {
		return "", false
	}
	return ID(id), true
}

// compositeComponents are the components stored as composite files.
var compositeComponents = []spaceusage.SegmentComponent{
	spaceusage.Terms,
	spaceusage.Postings,
	spaceusage.Positions,
	spaceusage.FastFields,
	spaceusage.FieldNorms,
}

// Meta is the committed state of a segment as recorded in the index meta.
type Meta struct {
	ID         ID     `json:"id"`
	MaxDoc     uint32 `json:"max_doc"`
	DelGen     uint64 `json:"del_gen,omitempty"`
	NumDeleted uint32 `json:"num_deleted,omitempty"`
}

// NumDocs returns the number of live documents.
func (m Meta) NumDocs() uint32 {
	return m.MaxDoc - m.NumDeleted
}

// HasDeletes reports whether a delete blob exists for the segment.
func (m Meta) HasDeletes() bool {
	return m.DelGen > 0
}

// Files returns every blob name belonging to the segment in its current state.
func (m Meta) Files() []string {
	files := make([]string, 0, len(compositeComponents)+2)
	for _, c := range compositeComponents {
		files = append(files, Filename(m.ID, c, 0))
	}
	files = append(files, Filename(m.ID, spaceusage.Store, 0))
	if m.HasDeletes() {
		files = append(files, Filename(m.ID, spaceusage.Delete, m.DelGen))
	}
	return files
}
