package nicehash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListRigs lists every group along with its rigs.
//
func (c *Client) ListRigs(ctx context.Context) (*GroupsList, error) {
	res := &GroupsList{}

	err := c.call(ctx, "groups_list", http.MethodGet, "/mining/groups/list",
		url.Values{"extendedResponse": {"true"}}, res,
	)
	if err != nil {
		return nil, fmt.Errorf("list rigs: %w", err)
	}

	return res, nil
}

// RigUnpaidStats retrieves the unpaid amounts table of a rig.
//
func (c *Client) RigUnpaidStats(ctx context.Context, rigID string) (*UnpaidStats, error) {
	res := &UnpaidStats{}

	err := c.call(ctx, "rig_stats_unpaid", http.MethodGet, "/mining/rig/stats/unpaid",
		url.Values{"rigId": {rigID}}, res,
	)
	if err != nil {
		return nil, fmt.Errorf("rig unpaid stats '%s': %w", rigID, err)
	}

	return res, nil
}

// RigDetail retrieves the details of a rig, devices included.
//
func (c *Client) RigDetail(ctx context.Context, rigID string) (*RigDetail, error) {
	res := &RigDetail{}

	err := c.call(ctx, "rig_detail", http.MethodGet,
		"/mining/rig2/"+url.PathEscape(rigID), nil, res,
	)
	if err != nil {
		return nil, fmt.Errorf("rig detail '%s': %w", rigID, err)
	}

	return res, nil
}

// Accounts retrieves the balance of every wallet with rates expressed in
// `fiat` (e.g., USD).
//
func (c *Client) Accounts(ctx context.Context, fiat string) (*Accounts, error) {
	res := &Accounts{}

	err := c.call(ctx, "accounts", http.MethodGet, "/accounting/accounts2",
		url.Values{"fiat": {fiat}}, res,
	)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}

	return res, nil
}

// Payouts retrieves the most recent payout.
//
func (c *Client) Payouts(ctx context.Context) (*Payouts, error) {
	res := &Payouts{}

	err := c.call(ctx, "payouts", http.MethodGet, "/mining/rigs/payouts",
		url.Values{"page": {"0"}, "size": {"1"}}, res,
	)
	if err != nil {
		return nil, fmt.Errorf("payouts: %w", err)
	}

	return res, nil
}

// MiningSummary retrieves the account-wide mining summary, payout schedule
// included. Rigs themselves are listed through ListRigs, so only the first
// (smallest) page is asked for.
//
func (c *Client) MiningSummary(ctx context.Context) (*MiningSummary, error) {
	res := &MiningSummary{}

	err := c.call(ctx, "mining_summary", http.MethodGet, "/mining/rigs2",
		url.Values{"page": {"0"}, "size": {"1"}}, res,
	)
	if err != nil {
		return nil, fmt.Errorf("mining summary: %w", err)
	}

	return res, nil
}
