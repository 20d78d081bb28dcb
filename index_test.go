package lexgo

import (
	"context"
	"testing"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func buildSchema(t *testing.T, fn func(b *schema.Builder)) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	fn(b)
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func openIndex(t *testing.T, s *schema.Schema, opts ...Option) *Index {
	t.Helper()
	idx, err := Open(context.Background(), Memory(), s, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func addAndCommit(t *testing.T, idx *Index, docs ...*schema.Document) {
	t.Helper()
	w, err := idx.Writer()
	require.NoError(t, err)
	defer w.Close()
	for _, d := range docs {
		_, err := w.AddDocument(d)
		require.NoError(t, err)
	}
	_, err = w.Commit(context.Background())
	require.NoError(t, err)
}

func spaceUsage(t *testing.T, idx *Index) *spaceusage.SearcherSpaceUsage {
	t.Helper()
	ctx := context.Background()
	s, err := idx.Searcher(ctx)
	require.NoError(t, err)
	defer s.Close()
	usage, err := s.SpaceUsage(ctx)
	require.NoError(t, err)
	return usage
}

// expectSingleField checks that only f contributes to pf and that its
// total lies in [lo, hi].
func expectSingleField(t *testing.T, pf *spaceusage.PerFieldSpaceUsage, f schema.Field, lo, hi spaceusage.ByteCount) {
	t.Helper()
	assert.GreaterOrEqual(t, pf.Total(), lo)
	assert.LessOrEqual(t, pf.Total(), hi)

	got := map[schema.Field]spaceusage.ByteCount{}
	for field, fu := range pf.Fields() {
		got[field] = fu.Total()
	}
	assert.Equal(t, map[schema.Field]spaceusage.ByteCount{f: pf.Total()}, got)
}

var textDocs = []string{
	"hi",
	"this is a test",
	"some more documents with some word overlap with the other test",
	"hello hi goodbye",
}

func TestSpaceUsage_EmptyIndex(t *testing.T) {
	idx := openIndex(t, buildSchema(t, func(*schema.Builder) {}))

	usage := spaceUsage(t, idx)
	assert.Equal(t, spaceusage.ByteCount(0), usage.Total())
	assert.Empty(t, usage.Segments())
}

func TestSpaceUsage_FastIndexedNumeric(t *testing.T) {
	var name schema.Field
	idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
		name = b.AddU64Field("name", schema.Fast|schema.Indexed)
	}))

	addAndCommit(t, idx,
		schema.NewDocument().AddU64(name, 1),
		schema.NewDocument().AddU64(name, 2),
		schema.NewDocument().AddU64(name, 10),
		schema.NewDocument().AddU64(name, 20),
	)

	usage := spaceUsage(t, idx)
	assert.Greater(t, usage.Total(), spaceusage.ByteCount(0))
	require.Len(t, usage.Segments(), 1)

	seg := usage.Segments()[0]
	assert.Greater(t, seg.Total(), spaceusage.ByteCount(0))
	assert.Equal(t, uint32(4), seg.NumDocs())

	expectSingleField(t, seg.Termdict(), name, 1, 512)
	expectSingleField(t, seg.Postings(), name, 1, 512)
	assert.Equal(t, spaceusage.ByteCount(0), seg.Positions().Total())
	expectSingleField(t, seg.FastFields(), name, 1, 512)
	expectSingleField(t, seg.Fieldnorms(), name, 1, 512)
	assert.Equal(t, spaceusage.ByteCount(0), seg.Deletes())
}

func TestSpaceUsage_Text(t *testing.T) {
	var name schema.Field
	idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
		name = b.AddTextField("name", schema.TEXT)
	}))

	var docs []*schema.Document
	for _, text := range textDocs {
		docs = append(docs, schema.NewDocument().AddText(name, text))
	}
	addAndCommit(t, idx, docs...)

	usage := spaceUsage(t, idx)
	require.Len(t, usage.Segments(), 1)

	seg := usage.Segments()[0]
	assert.Equal(t, uint32(4), seg.NumDocs())
	expectSingleField(t, seg.Termdict(), name, 1, 512)
	expectSingleField(t, seg.Postings(), name, 1, 512)
	expectSingleField(t, seg.Positions(), name, 1, 512)
	assert.Equal(t, spaceusage.ByteCount(0), seg.FastFields().Total())
	expectSingleField(t, seg.Fieldnorms(), name, 1, 512)
	assert.Equal(t, spaceusage.ByteCount(0), seg.Deletes())
}

func TestSpaceUsage_StoredOnly(t *testing.T) {
	var name schema.Field
	idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
		name = b.AddTextField("name", schema.Stored)
	}))

	var docs []*schema.Document
	for _, text := range textDocs {
		docs = append(docs, schema.NewDocument().AddText(name, text))
	}
	addAndCommit(t, idx, docs...)

	usage := spaceUsage(t, idx)
	require.Len(t, usage.Segments(), 1)

	seg := usage.Segments()[0]
	assert.Equal(t, uint32(4), seg.NumDocs())
	assert.Equal(t, spaceusage.ByteCount(0), seg.Termdict().Total())
	assert.Equal(t, spaceusage.ByteCount(0), seg.Postings().Total())
	assert.Equal(t, spaceusage.ByteCount(0), seg.Positions().Total())
	assert.Equal(t, spaceusage.ByteCount(0), seg.FastFields().Total())
	assert.Equal(t, spaceusage.ByteCount(0), seg.Fieldnorms().Total())
	assert.Greater(t, seg.Store().Total(), spaceusage.ByteCount(0))
	assert.Less(t, seg.Store().Total(), spaceusage.ByteCount(512))
	assert.Equal(t, spaceusage.ByteCount(0), seg.Deletes())
}

func TestSpaceUsage_Deletes(t *testing.T) {
	ctx := context.Background()
	var name schema.Field
	idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
		name = b.AddU64Field("name", schema.Indexed)
	}))

	addAndCommit(t, idx,
		schema.NewDocument().AddU64(name, 1),
		schema.NewDocument().AddU64(name, 2),
		schema.NewDocument().AddU64(name, 3),
		schema.NewDocument().AddU64(name, 4),
	)

	w, err := idx.Writer()
	require.NoError(t, err)
	_, err = w.DeleteTerm(name, schema.U64(2))
	require.NoError(t, err)
	_, err = w.DeleteTerm(name, schema.U64(3))
	require.NoError(t, err)
	_, err = w.Commit(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	usage := spaceUsage(t, idx)
	assert.Greater(t, usage.Total(), spaceusage.ByteCount(0))
	require.Len(t, usage.Segments(), 1)

	seg := usage.Segments()[0]
	assert.Greater(t, seg.Total(), spaceusage.ByteCount(0))
	assert.Equal(t, uint32(2), seg.NumDocs())
	expectSingleField(t, seg.Termdict(), name, 1, 512)
	expectSingleField(t, seg.Postings(), name, 1, 512)
	assert.Equal(t, spaceusage.ByteCount(0), seg.Positions().Total())
	assert.Equal(t, spaceusage.ByteCount(0), seg.FastFields().Total())
	expectSingleField(t, seg.Fieldnorms(), name, 1, 512)
	assert.Greater(t, seg.Deletes(), spaceusage.ByteCount(0))
}

func TestSpaceUsage_Additivity(t *testing.T) {
	var body, n schema.Field
	idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
		body = b.AddTextField("body", schema.TEXT|schema.Stored|schema.Fast)
		n = b.AddI64Field("n", schema.Indexed|schema.Fast|schema.Stored)
	}))

	for round := range 3 {
		var docs []*schema.Document
		for i, text := range textDocs {
			docs = append(docs, schema.NewDocument().AddText(body, text).AddI64(n, int64(round*10+i)))
		}
		addAndCommit(t, idx, docs...)
	}

	usage := spaceUsage(t, idx)
	require.Len(t, usage.Segments(), 3)

	var total spaceusage.ByteCount
	for _, seg := range usage.Segments() {
		sum := seg.Termdict().Total() + seg.Postings().Total() + seg.Positions().Total() +
			seg.FastFields().Total() + seg.Fieldnorms().Total() + seg.Store().Total() + seg.Deletes()
		assert.Equal(t, sum, seg.Total())
		assert.Equal(t, seg.Store().DataUsage()+seg.Store().OffsetsUsage(), seg.Store().Total())
		total += seg.Total()

		for c := range seg.FastFields().Fields() {
			assert.Contains(t, []schema.Field{body, n}, c)
		}
		fu, ok := seg.FastFields().Field(body)
		require.True(t, ok)
		assert.Len(t, fu.SubNumBytes(), 2)
	}
	assert.Equal(t, total, usage.Total())
	assert.Equal(t, total, usage.ComponentTotal(spaceusage.Postings)+usage.ComponentTotal(spaceusage.Terms)+
		usage.ComponentTotal(spaceusage.Positions)+usage.ComponentTotal(spaceusage.FastFields)+
		usage.ComponentTotal(spaceusage.FieldNorms)+usage.ComponentTotal(spaceusage.Store)+
		usage.ComponentTotal(spaceusage.Delete))
}

func TestIndex_SpaceUsageShortcut(t *testing.T) {
	var n schema.Field
	idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
		n = b.AddU64Field("n", schema.Indexed|schema.Stored)
	}))
	addAndCommit(t, idx, schema.NewDocument().AddU64(n, 7))

	usage, err := idx.SpaceUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, spaceUsage(t, idx).Total(), usage.Total())
}

func TestIndex_SpaceUsageReport(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var n schema.Field
			idx := openIndex(t, buildSchema(t, func(b *schema.Builder) {
				n = b.AddU64Field("n", schema.Indexed|schema.Stored)
			}), WithCodec(c))
			addAndCommit(t, idx, schema.NewDocument().AddU64(n, 7))

			report, err := idx.SpaceUsageReport(context.Background())
			require.NoError(t, err)
			assert.Contains(t, string(report), "\n  \"")

			usage := spaceUsage(t, idx)
			doc := string(report)
			assert.Equal(t, int64(usage.Total()), gjson.Get(doc, "total").Int())
			assert.Equal(t, int64(1), gjson.Get(doc, "segments.0.num_docs").Int())

			var decoded spaceusage.SearcherSpaceUsage
			require.NoError(t, c.Unmarshal(report, &decoded))
			assert.Equal(t, usage.Total(), decoded.Total())
		})
	}
}
