package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// Credentials identifies an API key owned by an organization.
//
// The secret must never end up in logs, see String.
//
type Credentials struct {
	Key            string
	Secret         string
	OrganizationID string
}

// String implements fmt.Stringer without leaking the secret.
//
func (c Credentials) String() string {
	return "key=" + c.Key + " org=" + c.OrganizationID + " secret=<redacted>"
}

// Request describes what gets signed for a single call.
//
type Request struct {
	// Method is the HTTP method, e.g. GET.
	//
	Method string

	// Path is the full request path as sent to the server, including the
	// API prefix (e.g. `/main/api/v2/mining/groups/list`).
	//
	Path string

	// Query holds the query parameters. They're encoded with keys sorted
	// so that what is signed matches byte for byte what is transmitted.
	//
	Query url.Values
}

// EncodedQuery is the canonical encoding of the request's query parameters.
//
func (r Request) EncodedQuery() string {
	return r.Query.Encode()
}

// Payload assembles the byte string the signature is computed over:
//
//	key \0 time \0 nonce \0 \0 org \0 \0 method \0 path \0 query
//
// The two empty fields are placeholders reserved by the remote API and must
// be present even though empty.
//
func Payload(creds Credentials, req Request, timestamp, nonce string) []byte {
	query := req.EncodedQuery()

	buf := make([]byte, 0,
		len(creds.Key)+len(timestamp)+len(nonce)+
			len(creds.OrganizationID)+len(req.Method)+
			len(req.Path)+len(query)+8,
	)

	for _, field := range []string{
		creds.Key,
		timestamp,
		nonce,
		"",
		creds.OrganizationID,
		"",
		req.Method,
		req.Path,
	} {
		buf = append(buf, field...)
		buf = append(buf, 0)
	}

	return append(buf, query...)
}

// Sign computes the lowercase hex HMAC-SHA256 of the canonical payload keyed
// with the API secret.
//
func Sign(creds Credentials, req Request, timestamp, nonce string) string {
	mac := hmac.New(sha256.New, []byte(creds.Secret))
	mac.Write(Payload(creds, req, timestamp, nonce))

	return hex.EncodeToString(mac.Sum(nil))
}

// Timestamp formats t as the millisecond epoch expected in `X-Time`.
//
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
