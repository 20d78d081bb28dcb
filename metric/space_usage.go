package metric

import (
	"context"
	"strconv"
	"time"

	"github.com/hupe1980/lexgo/spaceusage"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultScrapeTimeout bounds one space usage measurement.
const DefaultScrapeTimeout = 10 * time.Second

// SpaceUsageSource is anything that can measure its space usage.
type SpaceUsageSource interface {
	SpaceUsage(ctx context.Context) (*spaceusage.SearcherSpaceUsage, error)
}

// SpaceUsageCollector implements prometheus.Collector on top of a
// SpaceUsageSource. Segments are labeled by their ordinal.
type SpaceUsageCollector struct {
	source  SpaceUsageSource
	timeout time.Duration

	total      *prometheus.Desc
	components *prometheus.Desc
	fields     *prometheus.Desc
	docs       *prometheus.Desc
}

// SpaceUsageOption configures a SpaceUsageCollector.
type SpaceUsageOption func(*SpaceUsageCollector)

// WithScrapeTimeout bounds one measurement. Values <= 0 keep the default.
func WithScrapeTimeout(d time.Duration) SpaceUsageOption {
	return func(c *SpaceUsageCollector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConstLabels adds constant labels, e.g. the index name.
func WithConstLabels(labels prometheus.Labels) SpaceUsageOption {
	return func(c *SpaceUsageCollector) {
		c.describe(labels)
	}
}

// NewSpaceUsageCollector creates a collector for source.
func NewSpaceUsageCollector(source SpaceUsageSource, opts ...SpaceUsageOption) *SpaceUsageCollector {
	c := &SpaceUsageCollector{
		source:  source,
		timeout: DefaultScrapeTimeout,
	}
	c.describe(nil)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SpaceUsageCollector) describe(labels prometheus.Labels) {
	c.total = prometheus.NewDesc(
		"lexgo_space_usage_total_bytes",
		"Bytes used by all segments of the index.",
		nil, labels,
	)
	c.components = prometheus.NewDesc(
		"lexgo_space_usage_bytes",
		"Bytes used by one component of one segment.",
		[]string{"segment", "component"}, labels,
	)
	c.fields = prometheus.NewDesc(
		"lexgo_field_space_usage_bytes",
		"Bytes used by one field inside one component of one segment.",
		[]string{"segment", "component", "field"}, labels,
	)
	c.docs = prometheus.NewDesc(
		"lexgo_segment_docs",
		"Live documents of one segment.",
		[]string{"segment"}, labels,
	)
}

// Describe implements prometheus.Collector.
func (c *SpaceUsageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.components
	ch <- c.fields
	ch <- c.docs
}

// Collect implements prometheus.Collector.
func (c *SpaceUsageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	usage, err := c.source.SpaceUsage(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.total, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(usage.Total()))
	for i, seg := range usage.Segments() {
		ord := strconv.Itoa(i)
		ch <- prometheus.MustNewConstMetric(c.docs, prometheus.GaugeValue, float64(seg.NumDocs()), ord)

		for _, kind := range spaceusage.Components() {
			// TempStore shares the store file.
			if kind == spaceusage.TempStore {
				continue
			}
			ch <- prometheus.MustNewConstMetric(c.components, prometheus.GaugeValue,
				float64(seg.ComponentTotal(kind)), ord, kind.String())

			if pf := fieldBreakdown(seg, kind); pf != nil {
				for _, f := range pf.SortedFields() {
					fu, _ := pf.Field(f)
					ch <- prometheus.MustNewConstMetric(c.fields, prometheus.GaugeValue,
						float64(fu.Total()), ord, kind.String(), strconv.FormatUint(uint64(f), 10))
				}
			}
		}
	}
}

// fieldBreakdown returns the per field usage of kind without copying it, or nil
// if kind is not broken down by field.
func fieldBreakdown(seg *spaceusage.SegmentSpaceUsage, kind spaceusage.SegmentComponent) *spaceusage.PerFieldSpaceUsage {
	switch kind {
	case spaceusage.Terms:
		return seg.Termdict()
	case spaceusage.Postings:
		return seg.Postings()
	case spaceusage.Positions:
		return seg.Positions()
	case spaceusage.FastFields:
		return seg.FastFields()
	case spaceusage.FieldNorms:
		return seg.Fieldnorms()
	default:
		return nil
	}
}

var _ prometheus.Collector = (*SpaceUsageCollector)(nil)
