package lexgo

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/internal/manifest"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookSchema(t *testing.T) (*schema.Schema, schema.Field, schema.Field) {
	t.Helper()
	var title, year schema.Field
	s := buildSchema(t, func(b *schema.Builder) {
		title = b.AddTextField("title", schema.TEXT|schema.Stored)
		year = b.AddU64Field("year", schema.Indexed|schema.Fast|schema.Stored)
	})
	return s, title, year
}

func TestOpen_CreateAndReopen(t *testing.T) {
	ctx := context.Background()
	s, title, year := bookSchema(t)
	backend := Local(t.TempDir())

	idx, err := Open(ctx, backend, s)
	require.NoError(t, err)
	addAndCommit(t, idx,
		schema.NewDocument().AddText(title, "The Go Programming Language").AddU64(year, 2015),
		schema.NewDocument().AddText(title, "Concurrency in Go").AddU64(year, 2017),
	)
	opstamp := idx.Opstamp()
	require.NoError(t, idx.Close())

	reopened, err := Open(ctx, backend, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, s.Equal(reopened.Schema()))
	assert.Equal(t, opstamp, reopened.Opstamp())
	assert.Equal(t, uint64(2), reopened.NumDocs())
	require.Len(t, reopened.Segments(), 1)
	assert.Equal(t, uint32(2), reopened.Segments()[0].MaxDoc)

	searcher, err := reopened.Searcher(ctx)
	require.NoError(t, err)
	defer searcher.Close()

	hits, err := searcher.TermDocs(title, schema.String("concurrency"))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	doc, err := searcher.Doc(ctx, hits[0])
	require.NoError(t, err)
	v, ok := doc.Get(year)
	require.True(t, ok)
	assert.Equal(t, uint64(2017), v.U64)

	fast, err := searcher.FastValue(hits[0], year)
	require.NoError(t, err)
	assert.Equal(t, uint64(2017), fast.U64)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	s, _, _ := bookSchema(t)

	_, err := Open(ctx, Memory(), nil)
	assert.ErrorIs(t, err, ErrNoSchema)

	_, err = Open(ctx, Backend{}, s)
	assert.Error(t, err)

	backend := Memory()
	_, err = Open(ctx, backend, s)
	require.NoError(t, err)

	other := buildSchema(t, func(b *schema.Builder) {
		b.AddU64Field("other", schema.Indexed)
	})
	_, err = Open(ctx, backend, other)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = Open(ctx, backend, s)
	assert.NoError(t, err)
}

func TestOpen_Codec(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	store := blobstore.NewMemoryStore()

	idx, err := Open(ctx, Remote(store), s, WithCodec(codec.JSON{}))
	require.NoError(t, err)
	addAndCommit(t, idx, schema.NewDocument().AddText(title, "x"))

	m, err := manifest.NewStore(store, codec.JSON{}).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, codec.JSON{}.Name(), m.Codec)
}

func TestWriter_SingleWriter(t *testing.T) {
	s, _, _ := bookSchema(t)
	idx := openIndex(t, s)

	w, err := idx.Writer()
	require.NoError(t, err)

	_, err = idx.Writer()
	assert.ErrorIs(t, err, ErrWriterLocked)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrClosed)

	w2, err := idx.Writer()
	require.NoError(t, err)
	require.NoError(t, w2.Close())
}

func TestWriter_ReturnsWithoutBlocking(t *testing.T) {
	s, title, _ := bookSchema(t)
	idx := openIndex(t, s)

	done := make(chan error, 1)
	go func() {
		w, err := idx.Writer()
		if err == nil {
			_, err = w.AddDocument(schema.NewDocument().AddText(title, "Dune"))
		}
		if err == nil {
			_, err = w.Commit(context.Background())
		}
		if err == nil {
			err = w.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Writer, AddDocument and Commit did not return within 3s")
	}
	assert.Equal(t, uint64(1), idx.NumDocs())
}

func TestWriter_LocalLockAcrossIndexes(t *testing.T) {
	ctx := context.Background()
	s, _, _ := bookSchema(t)
	dir := t.TempDir()

	a, err := Open(ctx, Local(dir), s)
	require.NoError(t, err)
	b, err := Open(ctx, Local(dir), s)
	require.NoError(t, err)

	w, err := a.Writer()
	require.NoError(t, err)
	defer w.Close()

	_, err = b.Writer()
	assert.ErrorIs(t, err, ErrWriterLocked)
}

func TestWriter_Opstamps(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	idx := openIndex(t, s)

	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	op1, err := w.AddDocument(schema.NewDocument().AddText(title, "a"))
	require.NoError(t, err)
	op2, err := w.DeleteTerm(title, schema.String("a"))
	require.NoError(t, err)
	assert.Equal(t, op1+1, op2)

	docs, deletes := w.Pending()
	assert.Equal(t, 1, docs)
	assert.Equal(t, 1, deletes)

	committed, err := w.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, op2, committed)
	assert.Equal(t, committed, idx.Opstamp())

	again, err := w.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, committed, again)
}

func TestWriter_DeleteOnlyAffectsEarlierDocs(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	idx := openIndex(t, s)

	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	_, err = w.AddDocument(schema.NewDocument().AddText(title, "old draft"))
	require.NoError(t, err)
	_, err = w.DeleteTerm(title, schema.String("draft"))
	require.NoError(t, err)
	_, err = w.AddDocument(schema.NewDocument().AddText(title, "new draft"))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)

	searcher, err := idx.Searcher(ctx)
	require.NoError(t, err)
	defer searcher.Close()

	hits, err := searcher.TermDocs(title, schema.String("draft"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	doc, err := searcher.Doc(ctx, hits[0])
	require.NoError(t, err)
	v, _ := doc.Get(title)
	assert.Equal(t, "new draft", v.Str)

	_, err = searcher.Doc(ctx, DocAddress{Segment: 0, Doc: 0})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = searcher.Doc(ctx, DocAddress{Segment: 3, Doc: 0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriter_DeleteGenerationsAndDrop(t *testing.T) {
	ctx := context.Background()
	var n schema.Field
	s := buildSchema(t, func(b *schema.Builder) {
		n = b.AddU64Field("n", schema.Indexed)
	})
	store := blobstore.NewMemoryStore()
	idx, err := Open(ctx, Remote(store), s)
	require.NoError(t, err)

	addAndCommit(t, idx,
		schema.NewDocument().AddU64(n, 1),
		schema.NewDocument().AddU64(n, 2),
	)
	addAndCommit(t, idx, schema.NewDocument().AddU64(n, 3))
	require.Len(t, idx.Segments(), 2)

	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	_, err = w.DeleteTerm(n, schema.U64(1))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)

	segs := idx.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, uint64(1), segs[0].DelGen)
	assert.Equal(t, uint32(1), segs[0].NumDocs)

	_, err = w.DeleteTerm(n, schema.U64(2))
	require.NoError(t, err)
	_, err = w.DeleteTerm(n, schema.U64(3))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)

	assert.Empty(t, idx.Segments())
	assert.Equal(t, uint64(0), idx.NumDocs())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{manifest.CurrentFileName, manifest.MetaFileName(idx.Opstamp())}, names)

	versions, err := idx.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{idx.Opstamp()}, versions)
}

func TestWriter_DeleteWithinPendingSegmentDropsIt(t *testing.T) {
	ctx := context.Background()
	var n schema.Field
	s := buildSchema(t, func(b *schema.Builder) {
		n = b.AddU64Field("n", schema.Indexed)
	})
	store := blobstore.NewMemoryStore()
	idx, err := Open(ctx, Remote(store), s)
	require.NoError(t, err)

	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()
	_, err = w.AddDocument(schema.NewDocument().AddU64(n, 9))
	require.NoError(t, err)
	_, err = w.DeleteTerm(n, schema.U64(9))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)

	assert.Empty(t, idx.Segments())
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	for _, name := range names {
		assert.False(t, manifest.IsIndexFile(name) && name != manifest.MetaFileName(idx.Opstamp()), name)
	}
}

func TestWriter_DeleteTermErrors(t *testing.T) {
	var stored, num schema.Field
	s := buildSchema(t, func(b *schema.Builder) {
		stored = b.AddTextField("stored", schema.Stored)
		num = b.AddU64Field("num", schema.Indexed)
	})
	idx := openIndex(t, s)
	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	_, err = w.DeleteTerm(stored, schema.String("x"))
	assert.ErrorIs(t, err, ErrFieldType)

	_, err = w.DeleteTerm(num, schema.String("x"))
	var mismatch *ErrFieldTypeMismatch
	assert.ErrorAs(t, err, &mismatch)

	_, err = w.DeleteTerm(schema.Field(42), schema.U64(1))
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = w.AddDocument(schema.NewDocument().AddText(num, "x"))
	assert.ErrorAs(t, err, &mismatch)
}

func TestWriter_Rollback(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	idx := openIndex(t, s)
	addAndCommit(t, idx, schema.NewDocument().AddText(title, "kept"))
	before := idx.Opstamp()

	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	_, err = w.AddDocument(schema.NewDocument().AddText(title, "dropped"))
	require.NoError(t, err)
	_, err = w.DeleteTerm(title, schema.String("kept"))
	require.NoError(t, err)
	require.NoError(t, w.Rollback())

	docs, deletes := w.Pending()
	assert.Zero(t, docs)
	assert.Zero(t, deletes)

	op, err := w.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, op)
	assert.Equal(t, uint64(1), idx.NumDocs())
}

func TestWriter_GarbageCollect(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	store := blobstore.NewMemoryStore()
	idx, err := Open(ctx, Remote(store), s)
	require.NoError(t, err)
	addAndCommit(t, idx, schema.NewDocument().AddText(title, "a"))

	orphan := "00112233445566778899aabbccddeeff.store"
	require.NoError(t, store.Put(ctx, orphan, []byte("x")))
	require.NoError(t, store.Put(ctx, "notes.txt", []byte("x")))

	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	removed, err := w.GarbageCollect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, removed)

	_, err = store.Open(ctx, "notes.txt")
	assert.NoError(t, err)
}

func TestSearcher_PointInTime(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	idx := openIndex(t, s)
	addAndCommit(t, idx, schema.NewDocument().AddText(title, "first"))

	old, err := idx.Searcher(ctx)
	require.NoError(t, err)
	defer old.Close()

	addAndCommit(t, idx, schema.NewDocument().AddText(title, "second"))

	assert.Equal(t, uint64(1), old.NumDocs())
	assert.Len(t, old.Segments(), 1)

	oldUsage, err := old.SpaceUsage(ctx)
	require.NoError(t, err)
	assert.Len(t, oldUsage.Segments(), 1)

	fresh, err := idx.Searcher(ctx)
	require.NoError(t, err)
	defer fresh.Close()
	assert.Equal(t, uint64(2), fresh.NumDocs())
	assert.Greater(t, fresh.Opstamp(), old.Opstamp())
}

func TestSearcher_Closed(t *testing.T) {
	ctx := context.Background()
	s, _, _ := bookSchema(t)
	idx := openIndex(t, s)

	searcher, err := idx.Searcher(ctx)
	require.NoError(t, err)
	require.NoError(t, searcher.Close())

	_, err = searcher.SpaceUsage(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, searcher.Close(), ErrClosed)

	require.NoError(t, idx.Close())
	_, err = idx.Searcher(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = idx.Writer()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSearcher_MissingSegment(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	store := blobstore.NewMemoryStore()
	idx, err := Open(ctx, Remote(store), s, WithOpenConcurrency(1))
	require.NoError(t, err)
	addAndCommit(t, idx, schema.NewDocument().AddText(title, "a"))

	id := idx.Segments()[0].ID
	require.NoError(t, store.Delete(ctx, id+".store"))

	_, err = idx.Searcher(ctx)
	var segErr *ErrSegment
	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, id, segErr.Segment)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_Reload(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	store := blobstore.NewMemoryStore()

	reader, err := Open(ctx, Remote(store), s)
	require.NoError(t, err)
	writer, err := Open(ctx, Remote(store), s)
	require.NoError(t, err)

	addAndCommit(t, writer, schema.NewDocument().AddText(title, "a"))
	assert.Equal(t, uint64(0), reader.NumDocs())

	require.NoError(t, reader.Reload(ctx))
	assert.Equal(t, uint64(1), reader.NumDocs())
}

func TestIndex_LoggingAndMetrics(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)

	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	idx := openIndex(t, s, WithLogger(logger), WithMetricsCollector(metrics), WithCompression(CompressionZSTD), WithStoreBlockSize(64))
	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()

	for _, text := range textDocs {
		_, err := w.AddDocument(schema.NewDocument().AddText(title, text))
		require.NoError(t, err)
	}
	_, err = w.DeleteTerm(title, schema.String("hi"))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)

	usage, err := idx.SpaceUsage(ctx)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.AddDocumentCount)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.Equal(t, int64(1), stats.CommitCount)
	assert.Equal(t, int64(4), stats.CommitDocs)
	assert.Equal(t, int64(2), stats.CommitDeleted)
	assert.Equal(t, int64(1), stats.SpaceUsageCount)
	assert.Equal(t, usage.Total(), stats.LastSpaceUsage)
	assert.Greater(t, usage.Total(), spaceusage.ByteCount(0))

	out := buf.String()
	assert.Contains(t, out, "index opened")
	assert.Contains(t, out, "delete queued")
	assert.Contains(t, out, "commit completed")
	assert.Contains(t, out, "space usage measured")
}

func TestIndex_DocStoreCache(t *testing.T) {
	ctx := context.Background()
	s, title, year := bookSchema(t)
	idx := openIndex(t, s, WithReadRateLimit(1<<30), WithMemoryLimit(1<<20))

	addAndCommit(t, idx,
		schema.NewDocument().AddText(title, "Dune").AddU64(year, 1965),
		schema.NewDocument().AddText(title, "Emma").AddU64(year, 1815),
	)

	for range 2 {
		sr, err := idx.Searcher(ctx)
		require.NoError(t, err)
		doc, err := sr.Doc(ctx, DocAddress{Segment: 0, Doc: 1})
		require.NoError(t, err)
		v, _ := doc.Get(title)
		assert.Equal(t, "Emma", v.Str)
		require.NoError(t, sr.Close())
	}

	st := idx.CacheStats()
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, 1, st.Entries)

	// Dropping the segment drops its cached blocks.
	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()
	_, err = w.DeleteTerm(year, schema.U64(1965))
	require.NoError(t, err)
	_, err = w.DeleteTerm(year, schema.U64(1815))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)

	assert.Empty(t, idx.Segments())
	assert.Zero(t, idx.CacheStats().Entries)
}

func TestIndex_DocStoreCacheDisabled(t *testing.T) {
	ctx := context.Background()
	s, title, _ := bookSchema(t)
	idx := openIndex(t, s, WithDocStoreCacheSize(0))
	addAndCommit(t, idx, schema.NewDocument().AddText(title, "Dune"))

	sr, err := idx.Searcher(ctx)
	require.NoError(t, err)
	defer sr.Close()
	_, err = sr.Doc(ctx, DocAddress{})
	require.NoError(t, err)
	assert.Equal(t, CacheStats{}, idx.CacheStats())
}
