// Package poller drives the periodic collection of NiceHash figures.
//
// Unlike a prometheus collector that hits upstream on every scrape, the
// poller runs its own fixed-interval loop: each cycle goes through
// FETCH_GROUPS, FETCH_ACCOUNTING, FETCH_RIG_DETAIL, AGGREGATE and PUBLISH,
// staging only validated values and flushing them to the registry at the
// end. A failing step aborts what's left of the cycle, leaving every metric
// it didn't get to at its last known value.
//
package poller
