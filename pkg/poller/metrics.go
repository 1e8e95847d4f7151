package poller

import (
	"fmt"

	"github.com/cirocosta/nicehash-exporter/pkg/registry"
)

// RigStatusUnknown is what any status outside of RigStates gets mapped to.
//
const RigStatusUnknown = "UNKNOWN"

// RigStates is the set of states a rig can be in.
//
var RigStates = []string{
	"BENCHMARKING",
	"MINING",
	"STOPPED",
	"OFFLINE",
	"ERROR",
	"PENDING",
	"DISABLED",
	"TRANSFERRED",
	RigStatusUnknown,
}

// RigStatusPrefix prefixes the name of every per-rig status enum.
//
const RigStatusPrefix = "rig_status_"

// Names of the fixed gauges, all created before the first cycle.
//
const (
	MetricRigCount           = "rig_count"
	MetricCurrentlyUnpaid    = "currently_unpaid"
	MetricProfitability      = "money_profitability_actual"
	MetricLocalProfitability = "money_profitability_local"
	MetricRigTemperature     = "rig_temperature"
	MetricRigLoad            = "rig_load"
	MetricRigPowerUsage      = "rig_power_usage"
	MetricFiatRate           = "btc_fiat_rate"
	MetricWalletBalance      = "wallet_balance_btc"
	MetricWalletBalanceFiat  = "wallet_balance_fiat"
	MetricTotalBalanceFiat   = "total_balance_fiat"
	MetricLatestPayout       = "latest_payout_amount"
	MetricLastPayoutTime     = "last_payout_timestamp_milliseconds"
	MetricNextPayoutTime     = "next_payout_timestamp_milliseconds"
)

type gaugeDef struct {
	name string
	help string
}

var fixedGauges = []gaugeDef{
	{MetricRigCount, "The number of current rigs"},
	{MetricCurrentlyUnpaid, "The amount of Bitcoin currently not paid"},
	{MetricProfitability, "The actual profitability of the main rig"},
	{MetricLocalProfitability, "The theoretical profitability of the main rig"},
	{MetricRigTemperature, "Temperature of the gpu"},
	{MetricRigLoad, "Load of the gpu"},
	{MetricRigPowerUsage, "Power usage of the gpu"},
	{MetricFiatRate, "Fiat rate of Bitcoin"},
	{MetricWalletBalance, "Balance of the Bitcoin wallet"},
	{MetricWalletBalanceFiat, "Balance of the Bitcoin wallet in fiat"},
	{MetricTotalBalanceFiat, "Total balance of all wallets in fiat"},
	{MetricLatestPayout, "Amount of the most recent payout"},
	{MetricLastPayoutTime, "Time of the last payout in milliseconds since epoch"},
	{MetricNextPayoutTime, "Time of the next payout in milliseconds since epoch"},
}

// ensureGauges creates every fixed gauge, returning them keyed by name.
//
func ensureGauges(reg *registry.Registry) (map[string]*registry.Metric, error) {
	gauges := make(map[string]*registry.Metric, len(fixedGauges))

	for _, def := range fixedGauges {
		m, err := reg.EnsureGauge(def.name, def.help)
		if err != nil {
			return nil, fmt.Errorf("ensure gauge '%s': %w", def.name, err)
		}

		gauges[def.name] = m
	}

	return gauges, nil
}

// normalizeStatus maps a status token onto RigStates, reporting whether it
// was recognized.
//
func normalizeStatus(status string) (string, bool) {
	for _, s := range RigStates {
		if s == status {
			return s, true
		}
	}

	return RigStatusUnknown, false
}
