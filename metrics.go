package lexgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/lexgo/spaceusage"
)

// MetricsCollector defines an interface for collecting operational metrics.
// See metric.SpaceUsageCollector for a Prometheus exporter of space usage.
type MetricsCollector interface {
	// RecordAddDocument is called after each document is buffered.
	RecordAddDocument(duration time.Duration, err error)

	// RecordDelete is called after each delete-by-term is queued.
	RecordDelete(err error)

	// RecordCommit is called after each commit. docs is the number of
	// documents flushed, deleted the number of documents newly deleted.
	RecordCommit(docs, deleted int, duration time.Duration, err error)

	// RecordSpaceUsage is called after each space usage measurement.
	RecordSpaceUsage(total spaceusage.ByteCount, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddDocument(time.Duration, error)                      {}
func (NoopMetricsCollector) RecordDelete(error)                                          {}
func (NoopMetricsCollector) RecordCommit(int, int, time.Duration, error)                 {}
func (NoopMetricsCollector) RecordSpaceUsage(spaceusage.ByteCount, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddDocumentCount  atomic.Int64
	AddDocumentErrors atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	CommitCount       atomic.Int64
	CommitErrors      atomic.Int64
	CommitDocs        atomic.Int64
	CommitDeleted     atomic.Int64
	CommitTotalNanos  atomic.Int64
	SpaceUsageCount   atomic.Int64
	SpaceUsageErrors  atomic.Int64
	LastSpaceUsage    atomic.Uint64
}

// RecordAddDocument implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddDocument(_ time.Duration, err error) {
	b.AddDocumentCount.Add(1)
	if err != nil {
		b.AddDocumentErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(docs, deleted int, duration time.Duration, err error) {
	b.CommitCount.Add(1)
	b.CommitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
		return
	}
	b.CommitDocs.Add(int64(docs))
	b.CommitDeleted.Add(int64(deleted))
}

// RecordSpaceUsage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpaceUsage(total spaceusage.ByteCount, _ time.Duration, err error) {
	b.SpaceUsageCount.Add(1)
	if err != nil {
		b.SpaceUsageErrors.Add(1)
		return
	}
	b.LastSpaceUsage.Store(uint64(total))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddDocumentCount:  b.AddDocumentCount.Load(),
		AddDocumentErrors: b.AddDocumentErrors.Load(),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		CommitCount:       b.CommitCount.Load(),
		CommitErrors:      b.CommitErrors.Load(),
		CommitDocs:        b.CommitDocs.Load(),
		CommitDeleted:     b.CommitDeleted.Load(),
		CommitAvgNanos:    b.getAvgCommitNanos(),
		SpaceUsageCount:   b.SpaceUsageCount.Load(),
		SpaceUsageErrors:  b.SpaceUsageErrors.Load(),
		LastSpaceUsage:    spaceusage.ByteCount(b.LastSpaceUsage.Load()),
	}
}

func (b *BasicMetricsCollector) getAvgCommitNanos() int64 {
	count := b.CommitCount.Load()
	if count == 0 {
		return 0
	}
	return b.CommitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddDocumentCount  int64
	AddDocumentErrors int64
	DeleteCount       int64
	DeleteErrors      int64
	CommitCount       int64
	CommitErrors      int64
	CommitDocs        int64
	CommitDeleted     int64
	CommitAvgNanos    int64
	SpaceUsageCount   int64
	SpaceUsageErrors  int64
	LastSpaceUsage    spaceusage.ByteCount
}
