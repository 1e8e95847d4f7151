package registry

import "github.com/beorn7/perks/quantile"

// defaultQuantiles is the default quantiles to compute for a given data stream
// that we want to summarize.
//
// these (quantile -> epsilon) will be used by default by any Summary unless
// initialized with the `WithQuantiles` option to override it.
//
var defaultQuantiles = map[float64]float64{
	0.50: 0.01,
	0.90: 0.01,
	0.99: 0.001,
	1.00: 0.001,
}

// Summary accumulates observations into a streaming quantile estimate.
//
// Not safe for concurrent use: callers serialize access.
//
type Summary struct {
	count      uint64
	sum        float64
	objectives map[float64]float64

	stream *quantile.Stream
}

type SummaryOption func(s *Summary)

func WithQuantiles(v map[float64]float64) SummaryOption {
	return func(s *Summary) {
		s.objectives = v
	}
}

func NewSummary(opts ...SummaryOption) *Summary {
	summary := &Summary{
		objectives: cloneMap(defaultQuantiles),
	}

	for _, opt := range opts {
		opt(summary)
	}

	summary.stream = quantile.NewTargeted(summary.objectives)

	return summary
}

func (s *Summary) Insert(v float64) {
	s.sum += v
	s.stream.Insert(v)
	s.count++
}

func (s *Summary) Count() uint64 {
	return s.count
}

func (s *Summary) Sum() float64 {
	return s.sum
}

// Quantiles computes the current estimate for every objective.
//
func (s *Summary) Quantiles() map[float64]float64 {
	m := make(map[float64]float64, len(s.objectives))
	for phi := range s.objectives {
		m[phi] = s.stream.Query(phi)
	}

	return m
}

func cloneMap(o map[float64]float64) map[float64]float64 {
	m := make(map[float64]float64, len(o))
	for k, v := range o {
		m[k] = v
	}

	return m
}
