package lexgo

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/internal/manifest"
	"github.com/hupe1980/lexgo/internal/segment"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
)

// deleteOp is a pending delete-by-term. It applies to every committed
// document and to the first docLimit documents of the pending segment.
type deleteOp struct {
	field    schema.Field
	value    schema.Value
	opstamp  uint64
	docLimit uint32
}

// IndexWriter buffers documents and deletes until Commit.
// It is safe for concurrent use.
type IndexWriter struct {
	ix     *Index
	schema *schema.Schema
	unlock func() error

	mu      sync.Mutex
	seg     *segment.Writer
	deletes []deleteOp
	opstamp uint64
	closed  bool
}

// newIndexWriter is called with ix.mu held, so it must not read through
// ix.current.
func newIndexWriter(ix *Index, s *schema.Schema, unlock func() error, opstamp uint64) *IndexWriter {
	w := &IndexWriter{
		ix:      ix,
		schema:  s,
		unlock:  unlock,
		opstamp: opstamp,
	}
	w.reset()
	return w
}

func (w *IndexWriter) reset() {
	w.seg = segment.NewWriter(w.schema, segment.WriterOptions{
		Compression:    w.ix.opts.compression,
		StoreBlockSize: w.ix.opts.storeBlockSize,
	})
	w.deletes = nil
}

// AddDocument buffers doc and returns its opstamp.
func (w *IndexWriter) AddDocument(doc *schema.Document) (uint64, error) {
	start := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}

	_, err := w.seg.AddDocument(doc)
	w.ix.opts.metricsCollector.RecordAddDocument(time.Since(start), err)
	if err != nil {
		return 0, translateError(err)
	}
	w.opstamp++
	return w.opstamp, nil
}

// DeleteTerm deletes, on commit, every document added before this call whose
// field f contains the term v maps to. It returns the opstamp of the delete.
func (w *IndexWriter) DeleteTerm(f schema.Field, v schema.Value) (uint64, error) {
	ctx := context.Background()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}

	name, err := w.checkDeleteTerm(f, v)
	w.ix.opts.metricsCollector.RecordDelete(err)
	if err != nil {
		w.ix.opts.logger.LogDelete(ctx, name, w.opstamp, err)
		return 0, err
	}

	w.opstamp++
	w.deletes = append(w.deletes, deleteOp{
		field:    f,
		value:    v,
		opstamp:  w.opstamp,
		docLimit: w.seg.MaxDoc(),
	})
	w.ix.opts.logger.LogDelete(ctx, name, w.opstamp, nil)
	return w.opstamp, nil
}

// checkDeleteTerm validates a delete and returns the field name for logging.
func (w *IndexWriter) checkDeleteTerm(f schema.Field, v schema.Value) (string, error) {
	e, err := w.schema.Entry(f)
	if err != nil {
		return f.String(), err
	}
	if !e.IsIndexed() {
		return e.Name, fmt.Errorf("%w: %q is not indexed", ErrFieldType, e.Name)
	}
	if !v.Matches(e.Type) {
		return e.Name, &ErrFieldTypeMismatch{Field: e.Name, Expected: e.Type, Actual: v.Kind}
	}
	return e.Name, nil
}

// Pending returns the number of buffered documents and deletes.
func (w *IndexWriter) Pending() (docs, deletes int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int(w.seg.MaxDoc()), len(w.deletes)
}

// Commit flushes buffered documents into a new segment, applies pending
// deletes and publishes a new index meta. It returns the commit opstamp.
// Committing without pending operations is a no-op.
func (w *IndexWriter) Commit(ctx context.Context) (uint64, error) {
	start := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}

	prev := w.ix.current()
	if w.opstamp == prev.Opstamp {
		return prev.Opstamp, nil
	}

	docs := int(w.seg.MaxDoc())
	next, deleted, err := w.commit(ctx, prev)
	w.ix.opts.metricsCollector.RecordCommit(docs, deleted, time.Since(start), err)
	if err != nil {
		w.ix.opts.logger.LogCommit(ctx, w.opstamp, docs, deleted, 0, err)
		return 0, err
	}

	w.ix.publish(ctx, prev, next)
	w.ix.opts.logger.LogCommit(ctx, next.Opstamp, docs, deleted, len(next.Segments), nil)
	w.reset()
	return next.Opstamp, nil
}

func (w *IndexWriter) commit(ctx context.Context, prev *manifest.Meta) (*manifest.Meta, int, error) {
	store := w.ix.store
	next := prev.Clone()
	next.Opstamp = w.opstamp

	var written []string
	cleanup := func() {
		for _, name := range written {
			_ = store.Delete(context.WithoutCancel(ctx), name)
		}
	}

	pending := -1
	if w.seg.MaxDoc() > 0 {
		m, err := w.seg.Finish(ctx, store)
		if err != nil {
			return nil, 0, err
		}
		written = append(written, m.Files()...)
		next.Segments = append(next.Segments, m)
		pending = len(next.Segments) - 1
	}

	deleted := 0
	for i := range next.Segments {
		n, name, err := w.applyDeletes(ctx, &next.Segments[i], i == pending)
		if err != nil {
			cleanup()
			return nil, 0, err
		}
		if name != "" {
			written = append(written, name)
		}
		deleted += n
	}

	var orphaned []string
	next.Segments = slices.DeleteFunc(next.Segments, func(m segment.Meta) bool {
		if m.NumDocs() > 0 {
			return false
		}
		orphaned = append(orphaned, m.Files()...)
		return true
	})

	if err := w.ix.metas.Save(ctx, next); err != nil {
		cleanup()
		return nil, 0, translateError(err)
	}
	for _, name := range orphaned {
		_ = store.Delete(ctx, name)
	}
	return next, deleted, nil
}

// applyDeletes resolves the pending deletes against one segment and writes
// a new delete generation if any document was newly deleted. It updates m
// and returns the number of new deletes and the blob written.
func (w *IndexWriter) applyDeletes(ctx context.Context, m *segment.Meta, pending bool) (int, string, error) {
	if len(w.deletes) == 0 {
		return 0, "", nil
	}

	r, err := w.ix.openSegment(ctx, w.schema, *m)
	if err != nil {
		return 0, "", &ErrSegment{Segment: string(m.ID), cause: err}
	}
	defer r.Close()

	ds := r.Deletes()
	added := 0
	for _, op := range w.deletes {
		docs, err := r.TermDocs(op.field, op.value)
		if err != nil {
			return 0, "", translateError(err)
		}
		for _, doc := range docs {
			if pending && doc >= op.docLimit {
				continue
			}
			if ds.Add(doc) {
				added++
			}
		}
	}
	if added == 0 {
		return 0, "", nil
	}

	gen := m.DelGen + 1
	if _, err := segment.WriteDeletes(ctx, w.ix.store, m.ID, gen, ds); err != nil {
		return 0, "", err
	}
	m.DelGen = gen
	m.NumDeleted = ds.Len()
	return added, segment.Filename(m.ID, spaceusage.Delete, gen), nil
}

// Rollback drops every buffered document and delete since the last commit.
func (w *IndexWriter) Rollback() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	dropped := int(w.seg.MaxDoc()) + len(w.deletes)
	w.opstamp = w.ix.Opstamp()
	w.reset()
	w.ix.opts.logger.LogRollback(context.Background(), w.opstamp, dropped)
	return nil
}

// GarbageCollect removes segment and meta blobs the current commit does
// not reference, e.g. leftovers of a crashed commit. It returns the names
// of the removed blobs.
func (w *IndexWriter) GarbageCollect(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	return collectGarbage(ctx, w.ix.store, w.ix.current())
}

func collectGarbage(ctx context.Context, store blobstore.BlobStore, m *manifest.Meta) ([]string, error) {
	names, err := store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("lexgo: list blobs: %w", err)
	}
	keep := m.Files()
	var removed []string
	for _, name := range names {
		if slices.Contains(keep, name) || !manifest.IsIndexFile(name) {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			return removed, fmt.Errorf("lexgo: delete %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Close drops pending operations and releases the writer lock.
func (w *IndexWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	w.ix.releaseWriter()
	if w.unlock != nil {
		return w.unlock()
	}
	return nil
}
