// Package prom exports cache.Stats snapshots as Prometheus metrics.
package prom

import (
	"github.com/kclaka/colander/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter periodically reads a cache.CacheLayer's stats and exposes them
// as Prometheus gauges/counters. The cache core has no push-style hook
// points (Policy exposes none), so the adapter polls Stats() on Collect —
// the idiomatic Prometheus pattern for exporting values a component
// already tracks internally.
type Adapter struct {
	layer *cache.LayerPointer

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	size      *prometheus.Desc
	capacity  *prometheus.Desc
}

// New constructs an Adapter for layer under the given namespace/subsystem
// and registers it with reg (nil => prometheus.DefaultRegisterer). layer
// is a LayerPointer rather than a fixed CacheLayer so that a config
// hot-reload swap is reflected on the very next scrape.
func New(reg prometheus.Registerer, layer *cache.LayerPointer, ns, sub string) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"role", "policy"}
	a := &Adapter{
		layer: layer,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "hits_total"), "Cache hits", labels, nil),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "misses_total"), "Cache misses", labels, nil),
		evictions: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "evictions_total"), "Cache evictions", labels, nil),
		size: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "size_entries"), "Resident entries", labels, nil),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, "capacity_entries"), "Configured capacity", labels, nil),
	}
	reg.MustRegister(a)
	return a
}

// Describe implements prometheus.Collector.
func (a *Adapter) Describe(ch chan<- *prometheus.Desc) {
	ch <- a.hits
	ch <- a.misses
	ch <- a.evictions
	ch <- a.size
	ch <- a.capacity
}

// Collect implements prometheus.Collector, emitting one set of samples
// for the primary cache and, when configured, one for the comparison
// cache.
func (a *Adapter) Collect(ch chan<- prometheus.Metric) {
	layer := a.layer.Load()
	a.emit(ch, "primary", layer.PrimaryStats())
	if st, ok := layer.ComparisonStats(); ok {
		a.emit(ch, "comparison", st)
	}
}

func (a *Adapter) emit(ch chan<- prometheus.Metric, role string, st cache.Stats) {
	ch <- prometheus.MustNewConstMetric(a.hits, prometheus.CounterValue, float64(st.Hits), role, st.Name)
	ch <- prometheus.MustNewConstMetric(a.misses, prometheus.CounterValue, float64(st.Misses), role, st.Name)
	ch <- prometheus.MustNewConstMetric(a.evictions, prometheus.CounterValue, float64(st.Evictions), role, st.Name)
	ch <- prometheus.MustNewConstMetric(a.size, prometheus.GaugeValue, float64(st.Size), role, st.Name)
	ch <- prometheus.MustNewConstMetric(a.capacity, prometheus.GaugeValue, float64(st.Capacity), role, st.Name)
}

var _ prometheus.Collector = (*Adapter)(nil)
