package segment

import (
	"context"
	"fmt"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/internal/conv"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
	"golang.org/x/sync/errgroup"
)

// positionGap separates the positions of repeated values of one field so
// that phrases never span two values.
const positionGap = 1

// WriterOptions configures a Writer.
type WriterOptions struct {
	Compression Compression
	// StoreBlockSize is the uncompressed size at which store blocks are cut.
	// Zero means DefaultStoreBlockSize.
	StoreBlockSize int
}

// Writer builds a segment in memory. It is not safe for concurrent use.
type Writer struct {
	schema *schema.Schema
	id     ID
	maxDoc uint32

	indexes     map[schema.Field]*fieldIndex
	norms       map[schema.Field][]byte
	numericFast map[schema.Field][]uint64
	textFast    map[schema.Field][]string
	store       *storeWriter
}

// NewWriter creates a writer for a new segment with a fresh id.
func NewWriter(s *schema.Schema, opts WriterOptions) *Writer {
	w := &Writer{
		schema:      s,
		id:          NewID(),
		indexes:     make(map[schema.Field]*fieldIndex),
		norms:       make(map[schema.Field][]byte),
		numericFast: make(map[schema.Field][]uint64),
		textFast:    make(map[schema.Field][]string),
		store:       newStoreWriter(opts.Compression, opts.StoreBlockSize),
	}
	for f, e := range s.Fields() {
		if e.IsIndexed() {
			w.indexes[f] = newFieldIndex()
		}
	}
	return w
}

// ID returns the id the segment will be written under.
func (w *Writer) ID() ID { return w.id }

// MaxDoc returns the number of documents added so far.
func (w *Writer) MaxDoc() uint32 { return w.maxDoc }

// AddDocument validates doc against the schema and adds it. It returns the
// doc id within the segment.
func (w *Writer) AddDocument(doc *schema.Document) (uint32, error) {
	if err := doc.Validate(w.schema); err != nil {
		return 0, err
	}
	if _, err := conv.IntToUint32(int(w.maxDoc) + 1); err != nil {
		return 0, fmt.Errorf("segment: too many documents: %w", err)
	}
	id := w.maxDoc

	// Only the store can fail; it runs before any other component is touched.
	var stored []schema.FieldValue
	for _, fv := range doc.Values {
		if e, _ := w.schema.Entry(fv.Field); e.IsStored() {
			stored = append(stored, fv)
		}
	}
	if err := w.store.add(stored); err != nil {
		return 0, err
	}

	tokens := make(map[schema.Field]uint32)
	nextPos := make(map[schema.Field]uint32)
	fastSeen := make(map[schema.Field]bool)

	for _, fv := range doc.Values {
		e, _ := w.schema.Entry(fv.Field)

		if idx, ok := w.indexes[fv.Field]; ok {
			withPositions := e.HasPositions()
			if e.Type == schema.FieldTypeText {
				pos := nextPos[fv.Field]
				for _, tok := range Tokenize(fv.Value.Str) {
					idx.add(tok, id, pos, withPositions)
					pos++
					tokens[fv.Field]++
				}
				nextPos[fv.Field] = pos + positionGap
			} else {
				idx.add(Term(e, fv.Value), id, 0, false)
				tokens[fv.Field]++
			}
		}

		if e.IsFast() && !fastSeen[fv.Field] {
			fastSeen[fv.Field] = true
			if e.Type.IsNumeric() {
				w.numericFast[fv.Field] = append(w.numericFast[fv.Field], fv.Value.SortableBits())
			} else {
				w.textFast[fv.Field] = append(w.textFast[fv.Field], fv.Value.Str)
			}
		}
	}

	for f, e := range w.schema.Fields() {
		if e.IsIndexed() {
			w.norms[f] = append(w.norms[f], byte(min(tokens[f], 255)))
		}
		if e.IsFast() && !fastSeen[f] {
			if e.Type.IsNumeric() {
				w.numericFast[f] = append(w.numericFast[f], 0)
			} else {
				w.textFast[f] = append(w.textFast[f], "")
			}
		}
	}

	w.maxDoc++
	return id, nil
}

// build encodes every component blob.
func (w *Writer) build() (map[spaceusage.SegmentComponent][]byte, error) {
	var terms, postings, positions, fast, norms compositeWriter

	for f, e := range w.schema.Fields() {
		if idx, ok := w.indexes[f]; ok && len(idx.terms) > 0 {
			td, po, pos := idx.encode(e.HasPositions())
			if err := terms.add(f, 0, td); err != nil {
				return nil, err
			}
			if err := postings.add(f, 0, po); err != nil {
				return nil, err
			}
			if pos != nil {
				if err := positions.add(f, 0, pos); err != nil {
					return nil, err
				}
			}
		}
		if e.IsIndexed() && w.maxDoc > 0 {
			if err := norms.add(f, 0, w.norms[f]); err != nil {
				return nil, err
			}
		}
		if e.IsFast() && w.maxDoc > 0 {
			if e.Type.IsNumeric() {
				if err := fast.add(f, 0, encodeNumericColumn(w.numericFast[f])); err != nil {
					return nil, err
				}
			} else {
				offsets, data := encodeTextColumn(w.textFast[f])
				if err := fast.add(f, 0, offsets); err != nil {
					return nil, err
				}
				if err := fast.add(f, 1, data); err != nil {
					return nil, err
				}
			}
		}
	}

	store, err := w.store.finish()
	if err != nil {
		return nil, err
	}

	return map[spaceusage.SegmentComponent][]byte{
		spaceusage.Terms:      terms.bytes(),
		spaceusage.Postings:   postings.bytes(),
		spaceusage.Positions:  positions.bytes(),
		spaceusage.FastFields: fast.bytes(),
		spaceusage.FieldNorms: norms.bytes(),
		spaceusage.Store:      store,
	}, nil
}

// Finish encodes the segment and writes its blobs to store. On error,
// blobs that were already written are removed again.
func (w *Writer) Finish(ctx context.Context, store blobstore.BlobStore) (Meta, error) {
	blobs, err := w.build()
	if err != nil {
		return Meta{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for c, data := range blobs {
		name := Filename(w.id, c, 0)
		g.Go(func() error {
			if err := store.Put(gctx, name, data); err != nil {
				return fmt.Errorf("segment: write %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for c := range blobs {
			_ = store.Delete(context.WithoutCancel(ctx), Filename(w.id, c, 0))
		}
		return Meta{}, err
	}

	return Meta{ID: w.id, MaxDoc: w.maxDoc}, nil
}
