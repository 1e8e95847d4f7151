package poller

import (
	"github.com/cirocosta/nicehash-exporter/pkg/registry"
)

type gaugeUpdate struct {
	metric *registry.Metric
	value  float64
}

type stateUpdate struct {
	metric *registry.Metric
	state  string
}

// batch holds the validated updates of a cycle until it gets published.
//
type batch struct {
	gauges []gaugeUpdate
	states []stateUpdate
}

func (b *batch) set(m *registry.Metric, v float64) {
	b.gauges = append(b.gauges, gaugeUpdate{m, v})
}

func (b *batch) setState(m *registry.Metric, state string) {
	b.states = append(b.states, stateUpdate{m, state})
}

// merge appends the updates staged in `o`. Sub-steps stage into their own
// batch and merge it only once everything they produce got validated.
//
func (b *batch) merge(o *batch) {
	b.gauges = append(b.gauges, o.gauges...)
	b.states = append(b.states, o.states...)
}

func (b *batch) len() int {
	return len(b.gauges) + len(b.states)
}
