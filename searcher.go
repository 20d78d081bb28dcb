package lexgo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/internal/segment"
	"github.com/hupe1980/lexgo/schema"
	"github.com/hupe1980/lexgo/spaceusage"
	"golang.org/x/sync/errgroup"
)

// DocAddress locates a document in a searcher: the ordinal of its segment
// and its id within the segment.
type DocAddress struct {
	Segment int
	Doc     uint32
}

func (a DocAddress) String() string {
	return fmt.Sprintf("%d/%d", a.Segment, a.Doc)
}

// Searcher is a point-in-time view of the committed segments. Commits made
// after it was opened are not visible. It is safe for concurrent use.
type Searcher struct {
	schema  *schema.Schema
	opstamp uint64
	readers []*segment.Reader
	logger  *Logger
	metrics MetricsCollector

	mu     sync.RWMutex
	closed bool
}

// Searcher opens every committed segment, at most WithOpenConcurrency of
// them at once, and returns a searcher over them.
func (ix *Index) Searcher(ctx context.Context) (*Searcher, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return nil, ErrClosed
	}
	m := ix.meta

	readers := make([]*segment.Reader, len(m.Segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.openConcurrency)
	for i, sm := range m.Segments {
		g.Go(func() error {
			r, err := ix.openSegment(gctx, m.Schema, sm)
			if err != nil {
				return &ErrSegment{Segment: string(sm.ID), cause: translateError(err)}
			}
			readers[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, r := range readers {
			if r != nil {
				_ = r.Close()
			}
		}
		return nil, err
	}

	return &Searcher{
		schema:  m.Schema,
		opstamp: m.Opstamp,
		readers: readers,
		logger:  ix.opts.logger.WithOpstamp(m.Opstamp),
		metrics: ix.opts.metricsCollector,
	}, nil
}

// SpaceUsage opens a searcher on the latest commit and measures it.
func (ix *Index) SpaceUsage(ctx context.Context) (*spaceusage.SearcherSpaceUsage, error) {
	s, err := ix.Searcher(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.SpaceUsage(ctx)
}

// SpaceUsageReport measures the latest commit and encodes the result as
// indented JSON with the index codec.
func (ix *Index) SpaceUsageReport(ctx context.Context) ([]byte, error) {
	usage, err := ix.SpaceUsage(ctx)
	if err != nil {
		return nil, err
	}
	return codec.MarshalIndent(ix.opts.codec, usage, "", "  ")
}

// SpaceUsage reports how the bytes of every segment are spread over the
// segment components. The index meta is not included.
func (s *Searcher) SpaceUsage(ctx context.Context) (*spaceusage.SearcherSpaceUsage, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	usage := spaceusage.NewSearcherSpaceUsage()
	for _, r := range s.readers {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordSpaceUsage(0, time.Since(start), err)
			s.logger.LogSpaceUsage(ctx, 0, len(s.readers), err)
			return nil, err
		}
		usage.AddSegment(r.SpaceUsage())
	}

	s.metrics.RecordSpaceUsage(usage.Total(), time.Since(start), nil)
	s.logger.LogSpaceUsage(ctx, usage.Total(), len(s.readers), nil)
	return usage, nil
}

// Schema returns the schema of the index.
func (s *Searcher) Schema() *schema.Schema { return s.schema }

// Opstamp returns the opstamp of the commit the searcher reads.
func (s *Searcher) Opstamp() uint64 { return s.opstamp }

// NumDocs returns the number of live documents.
func (s *Searcher) NumDocs() uint64 {
	var n uint64
	for _, r := range s.readers {
		n += uint64(r.NumDocs())
	}
	return n
}

// Segments describes the segments of the searcher in ordinal order.
func (s *Searcher) Segments() []SegmentInfo {
	metas := make([]segment.Meta, len(s.readers))
	for i, r := range s.readers {
		metas[i] = r.Meta()
	}
	return segmentInfos(metas)
}

func (s *Searcher) reader(addr DocAddress) (*segment.Reader, error) {
	if addr.Segment < 0 || addr.Segment >= len(s.readers) {
		return nil, fmt.Errorf("%w: segment ordinal %d", ErrNotFound, addr.Segment)
	}
	r := s.readers[addr.Segment]
	if addr.Doc >= r.MaxDoc() || r.IsDeleted(addr.Doc) {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, addr)
	}
	return r, nil
}

// Doc returns the stored fields of a live document.
func (s *Searcher) Doc(ctx context.Context, addr DocAddress) (*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	r, err := s.reader(addr)
	if err != nil {
		return nil, err
	}
	doc, err := r.Doc(addr.Doc)
	return doc, translateError(err)
}

// FastValue returns the fast field value of field f for a live document.
func (s *Searcher) FastValue(addr DocAddress, f schema.Field) (schema.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return schema.Value{}, ErrClosed
	}
	r, err := s.reader(addr)
	if err != nil {
		return schema.Value{}, err
	}
	v, err := r.FastValue(f, addr.Doc)
	return v, translateError(err)
}

// TermDocs returns the live documents whose field f contains the term v
// maps to, ordered by segment and doc id.
func (s *Searcher) TermDocs(f schema.Field, v schema.Value) ([]DocAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []DocAddress
	for i, r := range s.readers {
		docs, err := r.TermDocs(f, v)
		if err != nil {
			return nil, translateError(err)
		}
		for _, d := range docs {
			out = append(out, DocAddress{Segment: i, Doc: d})
		}
	}
	return out, nil
}

// Close releases every segment reader.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	var errs []error
	for _, r := range s.readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
