package metric

import (
	"time"

	"github.com/hupe1980/lexgo"
	"github.com/hupe1980/lexgo/spaceusage"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements lexgo.MetricsCollector with Prometheus metrics.
type Collector struct {
	OpLatency      *prometheus.HistogramVec
	Ops            *prometheus.CounterVec
	CommittedDocs  prometheus.Counter
	DeletedDocs    prometheus.Counter
	LastSpaceUsage prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		OpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lexgo_operation_latency_seconds",
			Help:    "Latency of index operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexgo_operations_total",
			Help: "Index operations by kind and status.",
		}, []string{"op", "status"}),
		CommittedDocs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexgo_committed_docs_total",
			Help: "Documents flushed into segments.",
		}),
		DeletedDocs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexgo_deleted_docs_total",
			Help: "Documents deleted by commits.",
		}),
		LastSpaceUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lexgo_last_space_usage_bytes",
			Help: "Total of the most recent space usage measurement.",
		}),
	}
	reg.MustRegister(c.OpLatency, c.Ops, c.CommittedDocs, c.DeletedDocs, c.LastSpaceUsage)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.Ops.WithLabelValues(op, s).Inc()
	if d > 0 {
		c.OpLatency.WithLabelValues(op, s).Observe(d.Seconds())
	}
}

// RecordAddDocument implements lexgo.MetricsCollector.
func (c *Collector) RecordAddDocument(d time.Duration, err error) {
	c.observe("add_document", d, err)
}

// RecordDelete implements lexgo.MetricsCollector.
func (c *Collector) RecordDelete(err error) {
	c.Ops.WithLabelValues("delete", status(err)).Inc()
}

// RecordCommit implements lexgo.MetricsCollector.
func (c *Collector) RecordCommit(docs, deleted int, d time.Duration, err error) {
	c.observe("commit", d, err)
	if err != nil {
		return
	}
	c.CommittedDocs.Add(float64(docs))
	c.DeletedDocs.Add(float64(deleted))
}

// RecordSpaceUsage implements lexgo.MetricsCollector.
func (c *Collector) RecordSpaceUsage(total spaceusage.ByteCount, d time.Duration, err error) {
	c.observe("space_usage", d, err)
	if err == nil {
		c.LastSpaceUsage.Set(float64(total))
	}
}

var _ lexgo.MetricsCollector = (*Collector)(nil)
