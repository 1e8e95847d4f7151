package signer

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NonceLength is the number of characters in a nonce or request id.
//
const NonceLength = 36

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789"

var alphabetSize = big.NewInt(int64(len(nonceAlphabet)))

// NewNonce draws a fresh random token of NonceLength latin letters and
// digits. It's used for both `X-Nonce` and `X-Request-Id`, each call being an
// independent draw.
//
func NewNonce() (string, error) {
	b := make([]byte, NonceLength)

	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("rand int: %w", err)
		}

		b[i] = nonceAlphabet[n.Int64()]
	}

	return string(b), nil
}
