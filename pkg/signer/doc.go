// Package signer builds the authentication material required by every
// NiceHash API v2 request: the canonical signing payload, its HMAC-SHA256
// signature, and the random nonces sent along with it.
//
package signer
