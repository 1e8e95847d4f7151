package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/cirocosta/nicehash-exporter/pkg/nicehash"
	"github.com/cirocosta/nicehash-exporter/pkg/registry"
)

const (
	// DefaultInterval is the delay between the end of a cycle and the
	// start of the next one.
	//
	DefaultInterval = 5 * time.Second

	// DefaultRigIndex selects which rig of the listing (zero-based) gets
	// its details monitored.
	//
	DefaultRigIndex = 1

	// DefaultDeviceIndex selects which device of the monitored rig
	// (zero-based) reports temperature, load and power usage.
	//
	DefaultDeviceIndex = 1

	// DefaultFiat is the fiat currency rates are expressed in.
	//
	DefaultFiat = "USD"

	// WalletCurrency is the currency whose wallet is reported.
	//
	WalletCurrency = "BTC"
)

// API is the subset of the NiceHash API the poller relies on.
//
type API interface {
	ListRigs(ctx context.Context) (*nicehash.GroupsList, error)
	RigUnpaidStats(ctx context.Context, rigID string) (*nicehash.UnpaidStats, error)
	RigDetail(ctx context.Context, rigID string) (*nicehash.RigDetail, error)
	Accounts(ctx context.Context, fiat string) (*nicehash.Accounts, error)
	Payouts(ctx context.Context) (*nicehash.Payouts, error)
	MiningSummary(ctx context.Context) (*nicehash.MiningSummary, error)
}

var _ API = (*nicehash.Client)(nil)

// Poller periodically fetches figures from the API and publishes them to the
// registry.
//
type Poller struct {
	api API
	reg *registry.Registry

	// gauges holds every fixed gauge by name.
	//
	gauges map[string]*registry.Metric

	interval    time.Duration
	rigIndex    int
	deviceIndex int
	fiat        string

	log logr.Logger
}

// Option is a functional argument to override the poller's defaults.
//
type Option func(p *Poller)

// WithInterval overrides DefaultInterval.
//
func WithInterval(v time.Duration) Option {
	return func(p *Poller) {
		p.interval = v
	}
}

// WithRigIndex overrides DefaultRigIndex.
//
func WithRigIndex(v int) Option {
	return func(p *Poller) {
		p.rigIndex = v
	}
}

// WithDeviceIndex overrides DefaultDeviceIndex.
//
func WithDeviceIndex(v int) Option {
	return func(p *Poller) {
		p.deviceIndex = v
	}
}

// WithFiat overrides DefaultFiat.
//
func WithFiat(v string) Option {
	return func(p *Poller) {
		p.fiat = v
	}
}

// WithLogger overrides the default development logger.
//
func WithLogger(v logr.Logger) Option {
	return func(p *Poller) {
		p.log = v
	}
}

// New instantiates a poller, creating every fixed gauge in `reg` so that the
// full set of metrics is served even before the first cycle completes.
//
func New(api API, reg *registry.Registry, opts ...Option) (*Poller, error) {
	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	p := &Poller{
		api:         api,
		reg:         reg,
		interval:    DefaultInterval,
		rigIndex:    DefaultRigIndex,
		deviceIndex: DefaultDeviceIndex,
		fiat:        DefaultFiat,
		log:         zapr.NewLogger(defaultLogger.Named("poller")),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.rigIndex < 0 || p.deviceIndex < 0 {
		return nil, fmt.Errorf("negative rig (%d) or device (%d) index",
			p.rigIndex, p.deviceIndex)
	}

	p.gauges, err = ensureGauges(reg)
	if err != nil {
		return nil, fmt.Errorf("ensure gauges: %w", err)
	}

	return p, nil
}

// Run runs cycles back to back, `interval` apart, until the context is
// cancelled.
//
// ps.: this is a BLOCKING method.
//
func (p *Poller) Run(ctx context.Context) error {
	p.log.WithValues(
		"interval", p.interval,
		"rig-index", p.rigIndex,
		"device-index", p.deviceIndex,
	).Info("polling")

	for {
		report := p.RunCycle(ctx)
		p.logReport(report)

		select {
		case <-ctx.Done():
			return fmt.Errorf("ctx err: %w", ctx.Err())
		case <-time.After(p.interval):
		}
	}
}

// RunCycle goes once through every stage. Whatever got validated before a
// failure is still published.
//
func (p *Poller) RunCycle(ctx context.Context) *Report {
	report := &Report{}
	updates := &batch{}

	p.cycle(ctx, report, updates)

	report.Published = p.publish(updates)
	report.record(StagePublish, "", nil)

	return report
}

func (p *Poller) cycle(ctx context.Context, report *Report, updates *batch) {
	rigs, err := p.fetchGroups(ctx, updates)
	report.record(StageFetchGroups, "", err)
	if err != nil {
		return
	}

	p.fetchAccounting(ctx, report, updates)

	fetched, err := p.fetchRigDetail(ctx, rigs)
	report.record(StageFetchRigDetail, "", err)
	if err != nil {
		return
	}

	err = p.aggregate(fetched, updates)
	report.record(StageAggregate, "", err)
}

// publish flushes the batch into the registry, returning how many updates
// were applied.
//
func (p *Poller) publish(updates *batch) int {
	applied := 0

	for _, u := range updates.gauges {
		if err := u.metric.Set(u.value); err != nil {
			p.log.Error(err, "set", "metric", u.metric.Name())
			continue
		}

		applied++
	}

	for _, u := range updates.states {
		if err := u.metric.SetState(u.state); err != nil {
			p.log.Error(err, "set state", "metric", u.metric.Name())
			continue
		}

		applied++
	}

	return applied
}

func (p *Poller) logReport(report *Report) {
	if err := report.Err(); err != nil {
		p.log.Error(err, "cycle incomplete", "published", report.Published)
		return
	}

	p.log.V(1).Info("cycle done", "published", report.Published)
}
