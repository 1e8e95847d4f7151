// Package nicehash implements a small, read-only client for the NiceHash API
// v2.
//
// Every call is signed (see `pkg/signer`) with a fresh timestamp, nonce and
// request id. Nothing is retried here: a failed call surfaces as an error
// wrapping either ErrTransport or ErrProtocol and it's up to the caller to
// decide what to do with it (the poller simply waits for the next cycle).
//
package nicehash
