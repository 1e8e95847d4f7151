package poller

import (
	"fmt"
	"time"
)

const (
	// LastPayoutLayout is the format of the last payout timestamp, which
	// carries fractional seconds.
	//
	LastPayoutLayout = "2006-01-02T15:04:05.999999Z"

	// NextPayoutLayout is the format of the next payout timestamp.
	//
	NextPayoutLayout = "2006-01-02T15:04:05Z"

	// PayoutTimeOffset is added to payout timestamps: upstream hands out
	// naive wall-clock values that lag true UTC by one hour.
	//
	PayoutTimeOffset = time.Hour
)

// ParsePayoutTime parses `value` according to `layout` and applies
// PayoutTimeOffset.
//
func ParsePayoutTime(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse '%s': %w", value, err)
	}

	return t.Add(PayoutTimeOffset), nil
}

// payoutMillis is ParsePayoutTime converted to milliseconds since epoch.
//
func payoutMillis(layout, value string) (float64, error) {
	t, err := ParsePayoutTime(layout, value)
	if err != nil {
		return 0, err
	}

	return float64(t.UnixMilli()), nil
}
