package stginga

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheCollector exposes ResultCache occupancy to prometheus.
type CacheCollector struct {
	cache *ResultCache

	cacheEntries  *prometheus.Desc
	cacheCapacity *prometheus.Desc
}

func NewCacheCollector(cache *ResultCache) *CacheCollector {
	return &CacheCollector{
		cache: cache,

		cacheEntries: prometheus.NewDesc(
			"stginga_dq_cache_entries",
			"Number of cached whole-array decode results",
			nil, nil,
		),
		cacheCapacity: prometheus.NewDesc(
			"stginga_dq_cache_capacity",
			"Maximum number of cached whole-array decode results",
			nil, nil,
		),
	}
}

func (cc *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cc.cacheEntries
	ch <- cc.cacheCapacity
}

func (cc *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		cc.cacheEntries, prometheus.GaugeValue, float64(cc.cache.Len()))
	ch <- prometheus.MustNewConstMetric(
		cc.cacheCapacity, prometheus.GaugeValue, float64(cc.cache.cap))
}
