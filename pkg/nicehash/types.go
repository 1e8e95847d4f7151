package nicehash

import (
	"github.com/shopspring/decimal"
)

// RootGroup is the key under which the groups listing places rigs that don't
// belong to any user-defined group.
//
const RootGroup = ""

// GroupsList is the response of `GET /mining/groups/list`.
//
type GroupsList struct {
	Groups map[string]Group `json:"groups"`
}

// Group is a named set of rigs.
//
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rigs []Rig  `json:"rigs"`
}

// Rig is a mining worker as reported by the groups listing.
//
type Rig struct {
	ID     string `json:"rigId"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Rigs returns the rigs of the root group, with `ok` false if the listing
// didn't carry one.
//
func (g *GroupsList) Rigs() (rigs []Rig, ok bool) {
	group, ok := g.Groups[RootGroup]
	if !ok || group.Rigs == nil {
		return nil, false
	}

	return group.Rigs, true
}

// UnpaidStats is the response of `GET /mining/rig/stats/unpaid`: a table of
// rows, each one being `[time, ..., unpaid amount, ...]` per `Columns`.
//
type UnpaidStats struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

// UnpaidColumn is the position of the unpaid amount in each UnpaidStats row.
//
const UnpaidColumn = 2

// RigDetail is the response of `GET /mining/rig2/{rigId}`.
//
// Numeric fields are pointers so that absent fields can be told apart from
// zeroes.
//
type RigDetail struct {
	ID                 string   `json:"rigId"`
	Name               string   `json:"name"`
	MinerStatus        string   `json:"minerStatus"`
	Profitability      *float64 `json:"profitability"`
	LocalProfitability *float64 `json:"localProfitability"`
	Devices            []Device `json:"devices"`
}

// Device is a single mining device (usually a GPU) of a rig.
//
type Device struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature"`
	Load        *float64 `json:"load"`
	PowerUsage  *float64 `json:"powerUsage"`
}

// Accounts is the response of `GET /accounting/accounts2`.
//
type Accounts struct {
	Total      Balance    `json:"total"`
	Currencies []Currency `json:"currencies"`
}

// Balance is the aggregated balance over all wallets, expressed in BTC.
//
type Balance struct {
	Currency     string              `json:"currency"`
	TotalBalance decimal.NullDecimal `json:"totalBalance"`
	Available    decimal.NullDecimal `json:"available"`
	Pending      decimal.NullDecimal `json:"pending"`
}

// Currency is the wallet of a single currency.
//
type Currency struct {
	Active       bool                `json:"active"`
	Currency     string              `json:"currency"`
	TotalBalance decimal.NullDecimal `json:"totalBalance"`
	Available    decimal.NullDecimal `json:"available"`
	Pending      decimal.NullDecimal `json:"pending"`
	BTCRate      decimal.NullDecimal `json:"btcRate"`
	FiatRate     decimal.NullDecimal `json:"fiatRate"`
}

// FindCurrency returns the first currency whose code matches exactly.
//
func (a *Accounts) FindCurrency(code string) (Currency, bool) {
	for _, c := range a.Currencies {
		if c.Currency == code {
			return c, true
		}
	}

	return Currency{}, false
}

// Payouts is the response of `GET /mining/rigs/payouts`.
//
type Payouts struct {
	List       []Payout   `json:"list"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes which page of a listing a response holds.
//
type Pagination struct {
	Size           int `json:"size"`
	Page           int `json:"page"`
	TotalPageCount int `json:"totalPageCount"`
}

// Payout is a single payout, most recent first.
//
type Payout struct {
	ID        string              `json:"id"`
	Amount    decimal.NullDecimal `json:"amount"`
	FeeAmount decimal.NullDecimal `json:"feeAmount"`
	Created   int64               `json:"created"`
}

// MiningSummary is the response of `GET /mining/rigs2`: account-wide mining
// figures along with the payout schedule.
//
// Both timestamps are naive UTC wall-clock strings: the last one carries
// fractional seconds, the next one doesn't.
//
type MiningSummary struct {
	UnpaidAmount        decimal.NullDecimal `json:"unpaidAmount"`
	TotalProfitability  decimal.NullDecimal `json:"totalProfitability"`
	LastPayoutTimestamp string              `json:"lastPayoutTimestamp"`
	NextPayoutTimestamp string              `json:"nextPayoutTimestamp"`
}
