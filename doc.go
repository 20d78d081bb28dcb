// Package lexgo provides an embedded, segmented full-text index for Go that
// can report where its bytes go.
//
// An index is a set of immutable segments stored as blobs in a
// blobstore.BlobStore (memory, local directory, S3 or MinIO). Each commit
// writes a new segment and publishes a new index meta. Deletes are recorded
// as per-segment delete bitsets.
//
// # Quick Start
//
//	b := schema.NewBuilder()
//	title := b.AddTextField("title", schema.TEXT|schema.Stored)
//	year := b.AddU64Field("year", schema.Indexed|schema.Fast)
//	s, _ := b.Build()
//
//	ctx := context.Background()
//	idx, _ := lexgo.Open(ctx, lexgo.Local("./data"), s)
//	idx, _ := lexgo.Open(ctx, lexgo.Local("./data"), nil) // re-open existing
//
//	w, _ := idx.Writer()
//	w.AddDocument(schema.NewDocument().AddText(title, "hello world").AddU64(year, 2024))
//	w.Commit(ctx)
//	w.Close()
//
// Cloud mode:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("indexes/books"))
//	idx, _ := lexgo.Open(ctx, lexgo.Remote(store), s)
//
// # Space Usage
//
// A Searcher is a point-in-time view of the committed segments.
// SpaceUsage measures every component of every segment:
//
//	searcher, _ := idx.Searcher(ctx)
//	defer searcher.Close()
//
//	usage, _ := searcher.SpaceUsage(ctx)
//	fmt.Println("total:", usage.Total())
//	for _, seg := range usage.Segments() {
//	    fmt.Println(seg.NumDocs(), seg.Postings().Total(), seg.Store().Total())
//	    for field, fu := range seg.Termdict().Fields() {
//	        e, _ := s.Entry(field)
//	        fmt.Println(e.Name, fu.Total())
//	    }
//	}
//
// The index meta is not part of the totals. The metric package exports the
// same numbers to Prometheus.
//
// # Deletes
//
// DeleteTerm marks every document added before the call that contains the
// term. Deletes become visible with the next commit, which writes a new
// generation of the delete bitset of each affected segment. Segments whose
// documents are all deleted are dropped.
//
// # Concurrency
//
// An Index has at most one IndexWriter. Local and memory stores enforce this
// with a writer lock; the S3 DDBCommitStore rejects conflicting commits.
// Searchers and the writer may be used from many goroutines.
//
// # Caching and Limits
//
// Decompressed document store blocks are cached across searchers
// (WithDocStoreCacheSize). WithMemoryLimit caps the bytes the cache may hold
// and WithReadRateLimit throttles segment reads from the backend:
//
//	idx, _ := lexgo.Open(ctx, backend, s,
//	    lexgo.WithDocStoreCacheSize(64<<20),
//	    lexgo.WithMemoryLimit(128<<20),
//	    lexgo.WithReadRateLimit(32<<20),
//	)
//	fmt.Println(idx.CacheStats().Hits)
package lexgo
