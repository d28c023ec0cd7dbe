package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"yashubustudio/sedefinder/finder"
)

var (
	datasetRowsDesc = prometheus.NewDesc(
		"sedefinder_dataset_rows",
		"Rows in the currently loaded dataset",
		nil, nil,
	)
	cacheEntriesDesc = prometheus.NewDesc(
		"sedefinder_cache_entries",
		"Cached query results for the current dataset",
		nil, nil,
	)
	cacheLookupsDesc = prometheus.NewDesc(
		"sedefinder_cache_lookups",
		"Query cache lookups for the current dataset by outcome",
		[]string{"outcome"}, nil,
	)
)

// datasetCollector reads the service state on each scrape. Cache counters
// restart with every dataset load, so they are exported as gauges.
type datasetCollector struct {
	svc *finder.Service
}

// Describe sends the metric descriptors to the channel.
func (c *datasetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- datasetRowsDesc
	ch <- cacheEntriesDesc
	ch <- cacheLookupsDesc
}

// Collect emits the current dataset and cache figures.
func (c *datasetCollector) Collect(ch chan<- prometheus.Metric) {
	rows := 0
	if idx := c.svc.Index(); idx != nil {
		rows = idx.Len()
	}
	stats := c.svc.CacheStats()
	ch <- prometheus.MustNewConstMetric(datasetRowsDesc, prometheus.GaugeValue, float64(rows))
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(stats.Entries))
	ch <- prometheus.MustNewConstMetric(cacheLookupsDesc, prometheus.GaugeValue, float64(stats.Hits), "hit")
	ch <- prometheus.MustNewConstMetric(cacheLookupsDesc, prometheus.GaugeValue, float64(stats.Misses), "miss")
}

type queryMetrics struct {
	queries *prometheus.CounterVec
	latency *prometheus.HistogramVec
	reloads *prometheus.CounterVec
}

// newMetrics builds a registry private to one server so that several servers
// can coexist in a process.
func newMetrics(svc *finder.Service) (*prometheus.Registry, *queryMetrics) {
	m := &queryMetrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sedefinder_queries_total",
			Help: "Queries answered by kind and whether anything matched",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sedefinder_query_duration_seconds",
			Help:    "Time spent answering a query",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"kind"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sedefinder_reloads_total",
			Help: "Dataset reloads requested over HTTP by outcome",
		}, []string{"outcome"}),
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		&datasetCollector{svc: svc},
		m.queries, m.latency, m.reloads,
	)
	return reg, m
}

func (m *queryMetrics) observe(kind finder.QueryKind, start time.Time, results int) {
	outcome := "hit"
	if results == 0 {
		outcome = "empty"
	}
	m.queries.WithLabelValues(string(kind), outcome).Inc()
	m.latency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}
