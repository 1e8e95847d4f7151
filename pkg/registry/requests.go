package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestStats implements the prometheus Collector interface, providing
// latency summaries and outcome counts of the calls made to the upstream API.
//
type RequestStats struct {
	mu sync.Mutex

	durations map[string]*Summary
	results   map[requestKey]uint64

	durationDesc *prometheus.Desc
	totalDesc    *prometheus.Desc
}

type requestKey struct {
	name   string
	result string
}

// ensure that we implement prometheus' collector interface.
//
var _ prometheus.Collector = &RequestStats{}

func NewRequestStats() *RequestStats {
	return &RequestStats{
		durations: map[string]*Summary{},
		results:   map[requestKey]uint64{},

		durationDesc: prometheus.NewDesc(
			"nicehash_api_request_duration_seconds",
			"time taken by calls to the nicehash api",
			[]string{"endpoint"}, nil,
		),
		totalDesc: prometheus.NewDesc(
			"nicehash_api_requests_total",
			"number of calls made to the nicehash api per outcome",
			[]string{"endpoint", "result"}, nil,
		),
	}
}

// Observe records a call to `name` that took `seconds` and ended up as
// `result` (e.g., "success", "transport", "protocol").
//
func (s *RequestStats) Observe(name string, seconds float64, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, found := s.durations[name]
	if !found {
		summary = NewSummary()
		s.durations[name] = summary
	}

	summary.Insert(seconds)
	s.results[requestKey{name, result}]++
}

// Count is the number of calls to `name` that ended up as `result`.
//
func (s *RequestStats) Count(name, result string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.results[requestKey{name, result}]
}

// Describe implements the Describe function of the Collector interface.
//
func (s *RequestStats) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.durationDesc
	ch <- s.totalDesc
}

// Collect implements the Collect function of the Collector interface.
//
func (s *RequestStats) Collect(ch chan<- prometheus.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, summary := range s.durations {
		ch <- prometheus.MustNewConstSummary(
			s.durationDesc,
			summary.Count(), summary.Sum(), summary.Quantiles(),
			name,
		)
	}

	for key, count := range s.results {
		ch <- prometheus.MustNewConstMetric(
			s.totalDesc,
			prometheus.CounterValue,
			float64(count),
			key.name, key.result,
		)
	}
}
