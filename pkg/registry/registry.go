package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind is the type of a metric held by the registry.
//
type Kind int

const (
	// KindGauge is a single numeric value that can go up and down.
	//
	KindGauge Kind = iota

	// KindEnum is the current state out of a fixed set of named states.
	//
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindGauge:
		return "gauge"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrKindMismatch is returned when ensuring a metric under a name that
	// already exists with a different kind.
	//
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrUnknownState is returned when setting an enum to a state outside
	// of its set. The metric still gets updated, to its fallback state.
	//
	ErrUnknownState = errors.New("unknown state")
)

// Metadata describes a metric at creation time. It's ignored when the
// metric already exists.
//
type Metadata struct {
	Help string

	// States is the set of states of an enum metric.
	//
	States []string

	// Fallback is the state an enum takes when set to something outside
	// of States. Defaults to the last entry of States.
	//
	Fallback string
}

// Registry maps metric names to metric handles, registering each one with a
// private prometheus registry on first sight.
//
type Registry struct {
	mu      sync.Mutex
	metrics map[string]*Metric

	prom     *prometheus.Registry
	requests *RequestStats
}

// New instantiates an empty registry, with the request statistics collector
// already registered.
//
func New() *Registry {
	r := &Registry{
		metrics:  map[string]*Metric{},
		prom:     prometheus.NewRegistry(),
		requests: NewRequestStats(),
	}

	r.prom.MustRegister(r.requests)

	return r
}

// Gatherer exposes the underlying prometheus registry for serving.
//
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// Requests gives access to the upstream request statistics.
//
func (r *Registry) Requests() *RequestStats {
	return r.requests
}

// EnsureGauge is Ensure for gauges.
//
func (r *Registry) EnsureGauge(name, help string) (*Metric, error) {
	return r.Ensure(name, KindGauge, Metadata{Help: help})
}

// EnsureEnum is Ensure for enums.
//
func (r *Registry) EnsureEnum(name, help string, states []string) (*Metric, error) {
	return r.Ensure(name, KindEnum, Metadata{Help: help, States: states})
}

// Ensure returns the metric registered under `name`, creating it if it
// doesn't exist yet.
//
// The name is sanitized first (see SanitizeName). Ensuring an existing
// metric gives back the very same handle, untouched.
//
func (r *Registry) Ensure(name string, kind Kind, md Metadata) (*Metric, error) {
	name = SanitizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, found := r.metrics[name]; found {
		if m.kind != kind {
			return nil, fmt.Errorf("ensure '%s' as %s (is %s): %w",
				name, kind, m.kind, ErrKindMismatch)
		}

		return m, nil
	}

	m, err := newMetric(name, kind, md)
	if err != nil {
		return nil, fmt.Errorf("new metric '%s': %w", name, err)
	}

	if err := r.prom.Register(m.collector()); err != nil {
		return nil, fmt.Errorf("register '%s': %w", name, err)
	}

	r.metrics[name] = m

	return m, nil
}

// Get looks a metric up without creating it.
//
func (r *Registry) Get(name string) (*Metric, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, found := r.metrics[SanitizeName(name)]
	return m, found
}

// Names lists the names of every metric created so far, sorted.
//
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
