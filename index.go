package lexgo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/internal/cache"
	"github.com/hupe1980/lexgo/internal/manifest"
	"github.com/hupe1980/lexgo/internal/resource"
	"github.com/hupe1980/lexgo/internal/segment"
	"github.com/hupe1980/lexgo/schema"
)

// SegmentInfo describes a committed segment.
type SegmentInfo struct {
	ID         string
	MaxDoc     uint32
	NumDocs    uint32
	NumDeleted uint32
	DelGen     uint64
}

func segmentInfos(segs []segment.Meta) []SegmentInfo {
	infos := make([]SegmentInfo, len(segs))
	for i, s := range segs {
		infos[i] = SegmentInfo{
			ID:         string(s.ID),
			MaxDoc:     s.MaxDoc,
			NumDocs:    s.NumDocs(),
			NumDeleted: s.NumDeleted,
			DelGen:     s.DelGen,
		}
	}
	return infos
}

// Index is a segmented full-text index stored in a blob store.
//
// An Index hands out at most one IndexWriter at a time and any number of
// point-in-time Searchers. It is safe for concurrent use.
type Index struct {
	backend Backend
	store   blobstore.BlobStore
	metas   *manifest.Store
	opts    options

	resources *resource.Controller
	blocks    *cache.LRU

	mu         sync.RWMutex
	meta       *manifest.Meta
	writerOpen bool
	closed     bool
}

// Open opens the index in backend, creating it with schema s if no commit
// exists yet. When reopening, s may be nil; otherwise it must equal the
// committed schema.
func Open(ctx context.Context, backend Backend, s *schema.Schema, optFns ...Option) (*Index, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if backend.store == nil {
		return nil, errors.New("lexgo: backend has no blob store")
	}

	ix := &Index{
		backend:   backend,
		store:     backend.store,
		metas:     manifest.NewStore(backend.store, o.codec),
		opts:      o,
		resources: resource.NewController(resource.Config{
			MemoryLimitBytes: o.memoryLimit,
			ReadBytesPerSec:  o.readRateLimit,
		}),
	}
	if o.docStoreCacheSize > 0 {
		ix.blocks = cache.NewLRU(o.docStoreCacheSize, ix.resources)
	}

	meta, created, err := ix.load(ctx, s)
	if err != nil {
		o.logger.LogOpen(ctx, 0, 0, false, err)
		return nil, err
	}
	ix.meta = meta
	o.logger.LogOpen(ctx, meta.Opstamp, len(meta.Segments), created, nil)
	return ix, nil
}

func (ix *Index) load(ctx context.Context, s *schema.Schema) (*manifest.Meta, bool, error) {
	m, err := ix.metas.Load(ctx)
	switch {
	case err == nil:
		if s != nil && !s.Equal(m.Schema) {
			return nil, false, ErrSchemaMismatch
		}
		return m, false, nil
	case errors.Is(err, manifest.ErrNotFound):
		if s == nil {
			return nil, false, ErrNoSchema
		}
		m = manifest.New(s)
		if err := ix.metas.Save(ctx, m); err != nil {
			return nil, false, fmt.Errorf("lexgo: create %s: %w", ix.backend, err)
		}
		return m, true, nil
	default:
		return nil, false, translateError(err)
	}
}

// Reload re-reads the latest commit from the store, picking up commits made
// by writers in other processes.
func (ix *Index) Reload(ctx context.Context) error {
	m, err := ix.metas.Load(ctx)
	if err != nil {
		return translateError(err)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	if m.Opstamp >= ix.meta.Opstamp {
		ix.meta = m
	}
	return nil
}

func (ix *Index) current() *manifest.Meta {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.meta
}

// Schema returns the schema of the index.
func (ix *Index) Schema() *schema.Schema {
	return ix.current().Schema
}

// Opstamp returns the opstamp of the last commit.
func (ix *Index) Opstamp() uint64 {
	return ix.current().Opstamp
}

// NumDocs returns the number of live committed documents.
func (ix *Index) NumDocs() uint64 {
	return ix.current().NumDocs()
}

// Segments describes the committed segments.
func (ix *Index) Segments() []SegmentInfo {
	return segmentInfos(ix.current().Segments)
}

// Versions returns the opstamps of all meta versions kept in the store.
func (ix *Index) Versions(ctx context.Context) ([]uint64, error) {
	return ix.metas.ListVersions(ctx)
}

// Writer returns the single writer of the index. It fails with
// ErrWriterLocked while another writer is open, in this process or, for
// stores that support locking, in another one.
func (ix *Index) Writer() (*IndexWriter, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil, ErrClosed
	}
	if ix.writerOpen {
		return nil, ErrWriterLocked
	}

	var unlock func() error
	if l, ok := ix.store.(blobstore.Locker); ok {
		u, err := l.Lock()
		if err != nil {
			return nil, translateError(err)
		}
		unlock = u
	}
	ix.writerOpen = true
	return newIndexWriter(ix, ix.meta.Schema, unlock, ix.meta.Opstamp), nil
}

// CacheStats describes the shared document store block cache.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
	Bytes   int64
}

// CacheStats returns the counters of the document store block cache.
func (ix *Index) CacheStats() CacheStats {
	st := ix.blocks.Stats()
	return CacheStats{Hits: st.Hits, Misses: st.Misses, Entries: st.Entries, Bytes: st.Bytes}
}

// openSegment opens a segment reader sharing the index block cache and read
// limit.
func (ix *Index) openSegment(ctx context.Context, s *schema.Schema, m segment.Meta) (*segment.Reader, error) {
	return segment.Open(ctx, ix.store, s, m, segment.WithBlockCache(ix.blocks), segment.WithResources(ix.resources))
}

func (ix *Index) releaseWriter() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.writerOpen = false
}

// publish makes m the current commit and removes blobs only prev referenced.
func (ix *Index) publish(ctx context.Context, prev, m *manifest.Meta) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.meta = m

	live := make(map[segment.ID]struct{}, len(m.Segments))
	for _, sm := range m.Segments {
		live[sm.ID] = struct{}{}
	}
	for _, sm := range prev.Segments {
		if _, ok := live[sm.ID]; !ok {
			ix.blocks.Invalidate(string(sm.ID))
		}
	}

	keep := m.Files()
	for _, name := range prev.Files() {
		if slices.Contains(keep, name) {
			continue
		}
		if err := ix.store.Delete(ctx, name); err != nil {
			ix.opts.logger.WarnContext(ctx, "garbage collection failed", "blob", name, "error", err)
		}
	}
}

// Close closes the index. Open searchers stay usable until closed.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	ix.closed = true
	return nil
}
