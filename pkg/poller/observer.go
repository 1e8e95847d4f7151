package poller

import (
	"errors"
	"time"

	"github.com/cirocosta/nicehash-exporter/pkg/nicehash"
	"github.com/cirocosta/nicehash-exporter/pkg/registry"
)

// Outcomes a call to the API is classified as.
//
const (
	ResultSuccess   = "success"
	ResultTransport = "transport"
	ResultProtocol  = "protocol"
	ResultOther     = "other"
)

// RequestObserver feeds the outcome of every API call into the registry's
// request statistics.
//
type RequestObserver struct {
	stats *registry.RequestStats
}

var _ nicehash.Observer = (*RequestObserver)(nil)

func NewRequestObserver(reg *registry.Registry) *RequestObserver {
	return &RequestObserver{stats: reg.Requests()}
}

func (o *RequestObserver) ObserveRequest(name string, took time.Duration, err error) {
	o.stats.Observe(name, took.Seconds(), Classify(err))
}

// Classify tells which failure class an API error falls into.
//
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, nicehash.ErrTransport):
		return ResultTransport
	case errors.Is(err, nicehash.ErrProtocol):
		return ResultProtocol
	default:
		return ResultOther
	}
}
