package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/cirocosta/nicehash-exporter/pkg/nicehash"
	"github.com/cirocosta/nicehash-exporter/pkg/registry"
)

// fetchGroups lists the rigs, staging the rig count and the status of every
// rig listed.
//
func (p *Poller) fetchGroups(ctx context.Context, updates *batch) ([]nicehash.Rig, error) {
	res, err := p.api.ListRigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}

	rigs, ok := res.Rigs()
	if !ok {
		return nil, fmt.Errorf("root group missing: %w", ErrDataShape)
	}

	staged := &batch{}
	staged.set(p.gauges[MetricRigCount], float64(len(rigs)))

	for _, rig := range rigs {
		enum, err := p.reg.EnsureEnum(
			RigStatusPrefix+rig.Name,
			"Status of rig: "+rig.Name,
			RigStates,
		)
		if err != nil {
			return nil, fmt.Errorf("ensure status of rig '%s': %w",
				rig.Name, err)
		}

		status, known := normalizeStatus(rig.Status)
		if !known {
			p.log.Error(fmt.Errorf("rig '%s' status '%s': %w",
				rig.Name, rig.Status, registry.ErrUnknownState,
			), "data contract violation", "using", status)
		}

		staged.setState(enum, status)
	}

	updates.merge(staged)

	return rigs, nil
}

// fetchAccounting runs the balance, payouts and payout schedule sub-steps,
// each one independently of the others: one failing doesn't prevent the
// others from publishing.
//
// Sub-steps only stage values they validated, so whatever they staged gets
// published even when they report an error.
//
func (p *Poller) fetchAccounting(ctx context.Context, report *Report, updates *batch) {
	for _, step := range []struct {
		name string
		fn   func(context.Context, *batch) error
	}{
		{"balance", p.fetchBalance},
		{"payouts", p.fetchPayouts},
		{"schedule", p.fetchPayoutSchedule},
	} {
		staged := &batch{}

		err := step.fn(ctx, staged)
		report.record(StageFetchAccounting, step.name, err)

		updates.merge(staged)
	}
}

func (p *Poller) fetchBalance(ctx context.Context, staged *batch) error {
	accounts, err := p.api.Accounts(ctx, p.fiat)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	wallet, found := accounts.FindCurrency(WalletCurrency)
	if !found {
		return fmt.Errorf("no '%s' currency: %w", WalletCurrency, ErrDataShape)
	}

	if !wallet.TotalBalance.Valid || !wallet.FiatRate.Valid {
		return fmt.Errorf("'%s' balance or fiat rate missing: %w",
			WalletCurrency, ErrDataShape)
	}

	if !accounts.Total.TotalBalance.Valid {
		return fmt.Errorf("total balance missing: %w", ErrDataShape)
	}

	rate := wallet.FiatRate.Decimal
	balance := wallet.TotalBalance.Decimal

	fiatRate, _ := rate.Float64()
	walletBalance, _ := balance.Float64()
	walletFiat, _ := balance.Mul(rate).Float64()
	totalFiat, _ := accounts.Total.TotalBalance.Decimal.Mul(rate).Float64()

	staged.set(p.gauges[MetricFiatRate], fiatRate)
	staged.set(p.gauges[MetricWalletBalance], walletBalance)
	staged.set(p.gauges[MetricWalletBalanceFiat], walletFiat)
	staged.set(p.gauges[MetricTotalBalanceFiat], totalFiat)

	return nil
}

func (p *Poller) fetchPayouts(ctx context.Context, staged *batch) error {
	payouts, err := p.api.Payouts(ctx)
	if err != nil {
		return fmt.Errorf("fetch payouts: %w", err)
	}

	if len(payouts.List) == 0 || !payouts.List[0].Amount.Valid {
		return fmt.Errorf("no latest payout amount: %w", ErrDataShape)
	}

	amount, _ := payouts.List[0].Amount.Decimal.Float64()
	staged.set(p.gauges[MetricLatestPayout], amount)

	return nil
}

// fetchPayoutSchedule stages the last and next payout times. Each one is
// validated on its own: a malformed last payout time doesn't hold back the
// next one.
//
func (p *Poller) fetchPayoutSchedule(ctx context.Context, staged *batch) error {
	summary, err := p.api.MiningSummary(ctx)
	if err != nil {
		return fmt.Errorf("fetch mining summary: %w", err)
	}

	var errs []error

	for _, ts := range []struct {
		metric string
		layout string
		value  string
	}{
		{MetricLastPayoutTime, LastPayoutLayout, summary.LastPayoutTimestamp},
		{MetricNextPayoutTime, NextPayoutLayout, summary.NextPayoutTimestamp},
	} {
		millis, err := payoutMillis(ts.layout, ts.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %v: %w",
				ts.metric, err, ErrDataShape))
			continue
		}

		staged.set(p.gauges[ts.metric], millis)
	}

	return errors.Join(errs...)
}

// rigDetail is what FETCH_RIG_DETAIL gathers about the monitored rig.
//
type rigDetail struct {
	rig    nicehash.Rig
	unpaid *nicehash.UnpaidStats
	detail *nicehash.RigDetail
}

// fetchRigDetail retrieves the unpaid stats and details of the monitored rig
// (the one at `rigIndex` in the listing).
//
func (p *Poller) fetchRigDetail(ctx context.Context, rigs []nicehash.Rig) (*rigDetail, error) {
	if len(rigs) <= p.rigIndex {
		return nil, fmt.Errorf("%d rig(s) listed, monitoring index %d: %w",
			len(rigs), p.rigIndex, ErrDataShape)
	}

	rig := rigs[p.rigIndex]

	unpaid, err := p.api.RigUnpaidStats(ctx, rig.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch unpaid stats: %w", err)
	}

	detail, err := p.api.RigDetail(ctx, rig.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch detail: %w", err)
	}

	return &rigDetail{
		rig:    rig,
		unpaid: unpaid,
		detail: detail,
	}, nil
}

// aggregate validates every figure of the monitored rig, staging them only if
// all of them are present.
//
func (p *Poller) aggregate(fetched *rigDetail, updates *batch) error {
	if len(fetched.unpaid.Data) == 0 ||
		len(fetched.unpaid.Data[0]) <= nicehash.UnpaidColumn {
		return fmt.Errorf("rig '%s' unpaid stats empty: %w",
			fetched.rig.Name, ErrDataShape)
	}

	detail := fetched.detail
	if detail.Profitability == nil || detail.LocalProfitability == nil {
		return fmt.Errorf("rig '%s' profitability missing: %w",
			fetched.rig.Name, ErrDataShape)
	}

	if len(detail.Devices) <= p.deviceIndex {
		return fmt.Errorf("rig '%s' has %d device(s), monitoring index %d: %w",
			fetched.rig.Name, len(detail.Devices), p.deviceIndex, ErrDataShape)
	}

	device := detail.Devices[p.deviceIndex]
	if device.Temperature == nil || device.Load == nil || device.PowerUsage == nil {
		return fmt.Errorf("rig '%s' device '%s' readings missing: %w",
			fetched.rig.Name, device.Name, ErrDataShape)
	}

	updates.set(p.gauges[MetricCurrentlyUnpaid],
		fetched.unpaid.Data[0][nicehash.UnpaidColumn])
	updates.set(p.gauges[MetricProfitability], *detail.Profitability)
	updates.set(p.gauges[MetricLocalProfitability], *detail.LocalProfitability)
	updates.set(p.gauges[MetricRigTemperature], *device.Temperature)
	updates.set(p.gauges[MetricRigLoad], *device.Load)
	updates.set(p.gauges[MetricRigPowerUsage], *device.PowerUsage)

	return nil
}
