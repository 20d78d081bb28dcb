// Package metric exports index statistics to Prometheus.
//
// SpaceUsageCollector measures a SpaceUsageSource (an *lexgo.Index or
// *lexgo.Searcher) on every scrape. Collector implements
// lexgo.MetricsCollector with counters and histograms.
//
//	reg := prometheus.NewRegistry()
//	ops := metric.NewCollector(reg)
//	idx, _ := lexgo.Open(ctx, backend, s, lexgo.WithMetricsCollector(ops))
//	reg.MustRegister(metric.NewSpaceUsageCollector(idx))
package metric
