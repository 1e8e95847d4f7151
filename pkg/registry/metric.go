package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StateLabel is the label carrying the state name of an enum metric.
//
const StateLabel = "state"

// Metric is a handle to a single metric of the registry.
//
// Enums are exposed following the prometheus StateSet convention: one series
// per state, with the current one at 1 and every other at 0. The series are
// built from `state` at collection time, under the same lock SetState takes,
// so a scrape never sees a transition half-way through.
//
type Metric struct {
	name string
	kind Kind

	gauge prometheus.Gauge

	desc     *prometheus.Desc
	states   []string
	fallback string

	mu    sync.Mutex
	value float64
	state string
}

// ensure that enums can be registered as collectors.
//
var _ prometheus.Collector = &Metric{}

func newMetric(name string, kind Kind, md Metadata) (*Metric, error) {
	m := &Metric{
		name: name,
		kind: kind,
	}

	switch kind {
	case KindGauge:
		m.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name,
			Help: md.Help,
		})
	case KindEnum:
		if len(md.States) == 0 {
			return nil, errors.New("enum without states")
		}

		m.fallback = md.Fallback
		if m.fallback == "" {
			m.fallback = md.States[len(md.States)-1]
		}

		seen := make(map[string]struct{}, len(md.States))
		for _, s := range md.States {
			if _, dup := seen[s]; dup {
				return nil, fmt.Errorf("duplicate state '%s'", s)
			}

			seen[s] = struct{}{}
		}

		if _, ok := seen[m.fallback]; !ok {
			return nil, fmt.Errorf("fallback '%s' not among states", m.fallback)
		}

		m.states = append([]string(nil), md.States...)
		m.desc = prometheus.NewDesc(name, md.Help, []string{StateLabel}, nil)
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}

	return m, nil
}

func (m *Metric) collector() prometheus.Collector {
	if m.kind == KindEnum {
		return m
	}

	return m.gauge
}

// Describe implements the Describe function of the Collector interface.
//
func (m *Metric) Describe(ch chan<- *prometheus.Desc) {
	if m.kind != KindEnum {
		m.gauge.Describe(ch)
		return
	}

	ch <- m.desc
}

// Collect implements the Collect function of the Collector interface.
//
func (m *Metric) Collect(ch chan<- prometheus.Metric) {
	if m.kind != KindEnum {
		m.gauge.Collect(ch)
		return
	}

	m.mu.Lock()
	current := m.state
	m.mu.Unlock()

	for _, s := range m.states {
		v := float64(0)
		if s == current {
			v = 1
		}

		ch <- prometheus.MustNewConstMetric(
			m.desc,
			prometheus.GaugeValue,
			v,
			s,
		)
	}
}

// Name is the (sanitized) name the metric is registered under.
//
func (m *Metric) Name() string {
	return m.name
}

// Kind of the metric.
//
func (m *Metric) Kind() Kind {
	return m.kind
}

// Set updates a gauge.
//
func (m *Metric) Set(v float64) error {
	if m.kind != KindGauge {
		return fmt.Errorf("set '%s': %w", m.name, ErrKindMismatch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = v
	m.gauge.Set(v)

	return nil
}

// SetState moves an enum to `state`.
//
// A state outside of the enum's set moves it to its fallback state and
// returns an error wrapping ErrUnknownState so the caller can report it.
//
func (m *Metric) SetState(state string) error {
	if m.kind != KindEnum {
		return fmt.Errorf("set state '%s': %w", m.name, ErrKindMismatch)
	}

	var err error
	if !m.hasState(state) {
		err = fmt.Errorf("'%s' for '%s', using '%s': %w",
			state, m.name, m.fallback, ErrUnknownState)
		state = m.fallback
	}

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	return err
}

func (m *Metric) hasState(state string) bool {
	for _, s := range m.states {
		if s == state {
			return true
		}
	}

	return false
}

// Value is the last value set on a gauge.
//
func (m *Metric) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.value
}

// State is the current state of an enum, empty if never set.
//
func (m *Metric) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}
