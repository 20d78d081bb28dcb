package segment

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/internal/cache"
	"github.com/hupe1980/lexgo/internal/resource"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
)

// Reader gives read access to a committed segment.
// It is safe for concurrent use.
type Reader struct {
	meta   Meta
	schema *schema.Schema
	blobs  []blobstore.Blob

	composites  map[spaceusage.SegmentComponent]*compositeFile
	store       *storeReader
	deletes     *DeleteSet
	deleteBytes int

	inverted    map[schema.Field]*invertedField
	numericFast map[schema.Field]*numericColumn
	textFast    map[schema.Field]*textColumn
	norms       map[schema.Field][]byte

	blocks    *cache.LRU
	resources *resource.Controller
}

// OpenOption configures Open.
type OpenOption func(*Reader)

// WithBlockCache shares decompressed document store blocks through c.
func WithBlockCache(c *cache.LRU) OpenOption {
	return func(r *Reader) {
		r.blocks = c
	}
}

// WithResources throttles blob reads through rc.
func WithResources(rc *resource.Controller) OpenOption {
	return func(r *Reader) {
		r.resources = rc
	}
}

// Open loads every component of the segment described by meta.
func Open(ctx context.Context, store blobstore.BlobStore, s *schema.Schema, meta Meta, opts ...OpenOption) (*Reader, error) {
	r := &Reader{
		meta:        meta,
		schema:      s,
		composites:  make(map[spaceusage.SegmentComponent]*compositeFile, len(compositeComponents)),
		inverted:    make(map[schema.Field]*invertedField),
		numericFast: make(map[schema.Field]*numericColumn),
		textFast:    make(map[schema.Field]*textColumn),
		norms:       make(map[schema.Field][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.open(ctx, store); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) open(ctx context.Context, store blobstore.BlobStore) error {
	meta := r.meta
	for _, c := range compositeComponents {
		data, err := r.load(ctx, store, Filename(meta.ID, c, 0))
		if err != nil {
			return err
		}
		f, err := openComposite(data)
		if err != nil {
			return fmt.Errorf("segment %s %s: %w", meta.ID.Short(), c, err)
		}
		r.composites[c] = f
	}

	data, err := r.load(ctx, store, Filename(meta.ID, spaceusage.Store, 0))
	if err != nil {
		return err
	}
	if r.store, err = openStore(data, string(meta.ID), r.blocks); err != nil {
		return fmt.Errorf("segment %s store: %w", meta.ID.Short(), err)
	}
	if r.store.numDocs != meta.MaxDoc {
		return fmt.Errorf("%w: segment %s store holds %d docs, meta says %d", ErrCorrupt, meta.ID.Short(), r.store.numDocs, meta.MaxDoc)
	}

	if meta.HasDeletes() {
		data, err := r.load(ctx, store, Filename(meta.ID, spaceusage.Delete, meta.DelGen))
		if err != nil {
			return fmt.Errorf("segment %s deletes: %w", meta.ID.Short(), err)
		}
		if r.deletes, err = DecodeDeleteSet(data); err != nil {
			return err
		}
		r.deleteBytes = len(data)
	}

	if err := r.decodeFields(); err != nil {
		return fmt.Errorf("segment %s: %w", meta.ID.Short(), err)
	}
	return nil
}

// load opens a blob and keeps it open for the lifetime of the reader, so
// mapped data can be referenced without copying.
func (r *Reader) load(ctx context.Context, store blobstore.BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("segment: open %s: %w", name, err)
	}
	r.blobs = append(r.blobs, b)
	if err := r.resources.AcquireRead(ctx, b.Size()); err != nil {
		return nil, fmt.Errorf("segment: read %s: %w", name, err)
	}
	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("segment: read %s: %w", name, err)
	}
	return data, nil
}

func (r *Reader) decodeFields() error {
	terms := r.composites[spaceusage.Terms]
	postings := r.composites[spaceusage.Postings]
	positions := r.composites[spaceusage.Positions]
	fast := r.composites[spaceusage.FastFields]
	norms := r.composites[spaceusage.FieldNorms]

	for f, e := range r.schema.Fields() {
		if td, ok := terms.section(f, 0); ok {
			po, _ := postings.section(f, 0)
			pos, _ := positions.section(f, 0)
			inv, err := decodeInvertedField(td, po, pos)
			if err != nil {
				return fmt.Errorf("field %q: %w", e.Name, err)
			}
			r.inverted[f] = inv
		}

		if n, ok := norms.section(f, 0); ok {
			if len(n) != int(r.meta.MaxDoc) {
				return fmt.Errorf("%w: field %q has %d norms for %d docs", ErrCorrupt, e.Name, len(n), r.meta.MaxDoc)
			}
			r.norms[f] = n
		}

		if !e.IsFast() {
			continue
		}
		if e.Type.IsNumeric() {
			if col, ok := fast.section(f, 0); ok {
				c, err := decodeNumericColumn(col)
				if err != nil {
					return fmt.Errorf("field %q: %w", e.Name, err)
				}
				if c.numDocs != int(r.meta.MaxDoc) {
					return fmt.Errorf("%w: field %q column has %d docs", ErrCorrupt, e.Name, c.numDocs)
				}
				r.numericFast[f] = c
			}
			continue
		}
		offsets, ok1 := fast.section(f, 0)
		data, ok2 := fast.section(f, 1)
		if ok1 && ok2 {
			c, err := decodeTextColumn(offsets, data, r.meta.MaxDoc)
			if err != nil {
				return fmt.Errorf("field %q: %w", e.Name, err)
			}
			r.textFast[f] = c
		}
	}
	return nil
}

// Meta returns the meta the reader was opened with.
func (r *Reader) Meta() Meta { return r.meta }

// ID returns the segment id.
func (r *Reader) ID() ID { return r.meta.ID }

// MaxDoc returns the number of documents ever added, deleted or not.
func (r *Reader) MaxDoc() uint32 { return r.meta.MaxDoc }

// NumDeleted returns the number of deleted documents.
func (r *Reader) NumDeleted() uint32 { return r.deletes.Len() }

// NumDocs returns the number of live documents.
func (r *Reader) NumDocs() uint32 { return r.meta.MaxDoc - r.deletes.Len() }

// IsDeleted reports whether doc is deleted.
func (r *Reader) IsDeleted(doc uint32) bool { return r.deletes.Contains(doc) }

// Deletes returns a copy of the delete set.
func (r *Reader) Deletes() *DeleteSet { return r.deletes.Clone() }

// SpaceUsage measures every component of the segment.
func (r *Reader) SpaceUsage() *spaceusage.SegmentSpaceUsage {
	return spaceusage.NewSegmentSpaceUsage(
		r.NumDocs(),
		r.composites[spaceusage.Terms].spaceUsage(),
		r.composites[spaceusage.Postings].spaceUsage(),
		r.composites[spaceusage.Positions].spaceUsage(),
		r.composites[spaceusage.FastFields].spaceUsage(),
		r.composites[spaceusage.FieldNorms].spaceUsage(),
		r.store.spaceUsage(),
		spaceusage.ByteCount(r.deleteBytes),
	)
}

// Doc returns the stored fields of doc. Deleted documents can still be read.
func (r *Reader) Doc(doc uint32) (*schema.Document, error) {
	return r.store.doc(doc)
}

func (r *Reader) indexed(f schema.Field) (schema.FieldEntry, error) {
	e, err := r.schema.Entry(f)
	if err != nil {
		return e, err
	}
	if !e.IsIndexed() {
		return e, fmt.Errorf("%w: %q", ErrNotIndexed, e.Name)
	}
	return e, nil
}

// Postings returns the postings of the term v maps to in field f,
// including deleted documents.
func (r *Reader) Postings(f schema.Field, v schema.Value) ([]Posting, error) {
	e, err := r.indexed(f)
	if err != nil {
		return nil, err
	}
	inv, ok := r.inverted[f]
	if !ok {
		return nil, nil
	}
	return inv.postingsFor(Term(e, v), e.HasPositions())
}

// TermDocs returns the live documents containing the term v maps to.
func (r *Reader) TermDocs(f schema.Field, v schema.Value) ([]uint32, error) {
	postings, err := r.Postings(f, v)
	if err != nil {
		return nil, err
	}
	docs := make([]uint32, 0, len(postings))
	for _, p := range postings {
		if !r.deletes.Contains(p.Doc) {
			docs = append(docs, p.Doc)
		}
	}
	return docs, nil
}

// Terms returns the distinct terms of field f in byte order.
func (r *Reader) Terms(f schema.Field) ([]string, error) {
	if _, err := r.indexed(f); err != nil {
		return nil, err
	}
	inv, ok := r.inverted[f]
	if !ok {
		return nil, nil
	}
	return inv.sortedTerms(), nil
}

// FieldNorm returns the number of tokens doc has in field f, capped at 255.
func (r *Reader) FieldNorm(f schema.Field, doc uint32) (uint8, error) {
	if _, err := r.indexed(f); err != nil {
		return 0, err
	}
	if doc >= r.meta.MaxDoc {
		return 0, fmt.Errorf("%w: %d", ErrDocOutOfRange, doc)
	}
	return r.norms[f][doc], nil
}

// FastValue returns the fast field value of doc. Documents without a value
// read as zero or the empty string.
func (r *Reader) FastValue(f schema.Field, doc uint32) (schema.Value, error) {
	e, err := r.schema.Entry(f)
	if err != nil {
		return schema.Value{}, err
	}
	if !e.IsFast() {
		return schema.Value{}, fmt.Errorf("%w: %q", ErrNotFast, e.Name)
	}
	if doc >= r.meta.MaxDoc {
		return schema.Value{}, fmt.Errorf("%w: %d", ErrDocOutOfRange, doc)
	}
	if e.Type.IsNumeric() {
		c, ok := r.numericFast[f]
		if !ok {
			return schema.Value{}, fmt.Errorf("%w: missing column for %q", ErrCorrupt, e.Name)
		}
		return fromSortable(e.Type, c.get(doc)), nil
	}
	c, ok := r.textFast[f]
	if !ok {
		return schema.Value{}, fmt.Errorf("%w: missing column for %q", ErrCorrupt, e.Name)
	}
	return schema.String(c.get(doc)), nil
}

// Close releases every blob held by the reader.
func (r *Reader) Close() error {
	var errs []error
	for _, b := range r.blobs {
		errs = append(errs, b.Close())
	}
	r.blobs = nil
	return errors.Join(errs...)
}
