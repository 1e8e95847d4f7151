package nicehash_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/nicehash-exporter/pkg/nicehash"
	"github.com/cirocosta/nicehash-exporter/pkg/signer"
)

var testCreds = signer.Credentials{
	Key:            "key-1",
	Secret:         "secret-1",
	OrganizationID: "org-1",
}

type recordingObserver struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (o *recordingObserver) ObserveRequest(name string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.names = append(o.names, name)
	o.errs = append(o.errs, err)
}

func newClient(t *testing.T, url string, opts ...nicehash.Option) *nicehash.Client {
	t.Helper()

	opts = append([]nicehash.Option{nicehash.WithLogger(logr.Discard())}, opts...)

	client, err := nicehash.New(url, testCreds, opts...)
	require.NoError(t, err)

	return client
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}
}

func TestClient_SignsRequests(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	seen := make(chan *http.Request, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r
		fmt.Fprint(w, `{"columns":["time","x","unpaid"],"data":[[1,2,0.5]]}`)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL, nicehash.WithClock(func() time.Time { return now }))

	stats, err := client.RigUnpaidStats(context.Background(), "rig-2")
	require.NoError(t, err)
	require.Len(t, stats.Data, 1)
	assert.Equal(t, 0.5, stats.Data[0][nicehash.UnpaidColumn])

	req := <-seen

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/main/api/v2/mining/rig/stats/unpaid", req.URL.Path)
	assert.Equal(t, "rigId=rig-2", req.URL.RawQuery)
	assert.Equal(t, "1700000000000", req.Header.Get(nicehash.HeaderTime))
	assert.Equal(t, "org-1", req.Header.Get(nicehash.HeaderOrganizationID))

	nonce := req.Header.Get(nicehash.HeaderNonce)
	requestID := req.Header.Get(nicehash.HeaderRequestID)

	assert.Len(t, nonce, signer.NonceLength)
	assert.Len(t, requestID, signer.NonceLength)
	assert.NotEqual(t, nonce, requestID)

	expected := signer.Sign(testCreds, signer.Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
	}, req.Header.Get(nicehash.HeaderTime), nonce)

	assert.Equal(t, "key-1:"+expected, req.Header.Get(nicehash.HeaderAuth))
}

func TestClient_FreshEnvelopePerCall(t *testing.T) {
	var (
		mu     sync.Mutex
		nonces = map[string]struct{}{}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		nonces[r.Header.Get(nicehash.HeaderNonce)] = struct{}{}
		mu.Unlock()

		fmt.Fprint(w, `{"list":[]}`)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)

	for i := 0; i < 5; i++ {
		_, err := client.Payouts(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, nonces, 5)
}

func TestClient_Endpoints(t *testing.T) {
	for _, tc := range []struct {
		name  string
		path  string
		query string
		call  func(c *nicehash.Client) error
	}{
		{
			name:  "list rigs",
			path:  "/main/api/v2/mining/groups/list",
			query: "extendedResponse=true",
			call: func(c *nicehash.Client) error {
				_, err := c.ListRigs(context.Background())
				return err
			},
		},
		{
			name: "rig detail",
			path: "/main/api/v2/mining/rig2/rig-2",
			call: func(c *nicehash.Client) error {
				_, err := c.RigDetail(context.Background(), "rig-2")
				return err
			},
		},
		{
			name:  "accounts",
			path:  "/main/api/v2/accounting/accounts2",
			query: "fiat=USD",
			call: func(c *nicehash.Client) error {
				_, err := c.Accounts(context.Background(), "USD")
				return err
			},
		},
		{
			name:  "payouts",
			path:  "/main/api/v2/mining/rigs/payouts",
			query: "page=0&size=1",
			call: func(c *nicehash.Client) error {
				_, err := c.Payouts(context.Background())
				return err
			},
		},
		{
			name:  "mining summary",
			path:  "/main/api/v2/mining/rigs2",
			query: "page=0&size=1",
			call: func(c *nicehash.Client) error {
				_, err := c.MiningSummary(context.Background())
				return err
			},
		},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			seen := make(chan *http.Request, 1)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen <- r
				fmt.Fprint(w, `{}`)
			}))
			defer srv.Close()

			require.NoError(t, tc.call(newClient(t, srv.URL)))

			req := <-seen
			assert.Equal(t, tc.path, req.URL.Path)
			assert.Equal(t, tc.query, req.URL.RawQuery)
		})
	}
}

func TestClient_Decoding(t *testing.T) {
	srv := httptest.NewServer(respond(`{
		"total": {"currency": "BTC", "totalBalance": "0.5"},
		"currencies": [
			{"currency": "ETH", "totalBalance": "1", "fiatRate": 2000},
			{"currency": "BTC", "totalBalance": "0.25", "fiatRate": 40000.5}
		]
	}`))
	defer srv.Close()

	accounts, err := newClient(t, srv.URL).Accounts(context.Background(), "USD")
	require.NoError(t, err)

	btc, ok := accounts.FindCurrency("BTC")
	require.True(t, ok)
	assert.Equal(t, "0.25", btc.TotalBalance.Decimal.String())
	assert.Equal(t, "40000.5", btc.FiatRate.Decimal.String())
	assert.True(t, accounts.Total.TotalBalance.Valid)

	_, ok = accounts.FindCurrency("btc")
	assert.False(t, ok)
}

func TestClient_ProtocolFailures(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"non json": respond(`<html>oops</html>`),
		"error indicator": respond(
			`{"error_id":"abc","errors":[{"code":2000,"message":"Invalid session"}]}`,
		),
		"bad status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{}`)
		},
		"wrong shape": respond(`{"groups": []}`),
	} {
		handler := handler

		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := newClient(t, srv.URL).ListRigs(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, nicehash.ErrProtocol), err.Error())
			assert.False(t, errors.Is(err, nicehash.ErrTransport))
		})
	}
}

func TestClient_TransportFailures(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := newClient(t, srv.URL, nicehash.WithTimeout(50*time.Millisecond))

		_, err := client.ListRigs(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, nicehash.ErrTransport), err.Error())
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(respond(`{}`))
		url := srv.URL
		srv.Close()

		_, err := newClient(t, url).ListRigs(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, nicehash.ErrTransport), err.Error())
	})
}

func TestClient_Observer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/payouts") {
			fmt.Fprint(w, `{"error_id":"x"}`)
			return
		}

		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	observer := &recordingObserver{}
	client := newClient(t, srv.URL,
		nicehash.WithObserver(observer),
		nicehash.WithRateLimit(1000, 10),
	)

	_, err := client.RigDetail(context.Background(), "rig-1")
	require.NoError(t, err)

	_, err = client.Payouts(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"rig_detail", "payouts"}, observer.names)
	assert.NoError(t, observer.errs[0])
	assert.True(t, errors.Is(observer.errs[1], nicehash.ErrProtocol))
}

func TestClient_DoReportsGivenName(t *testing.T) {
	seen := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.Path
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	observer := &recordingObserver{}
	client := newClient(t, srv.URL, nicehash.WithObserver(observer))

	var out map[string]interface{}
	err := client.Do(context.Background(),
		"rig_detail", http.MethodGet, "/mining/rig2/rig-42", nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "/main/api/v2/mining/rig2/rig-42", <-seen)
	assert.Equal(t, []string{"rig_detail"}, observer.names)
}

func TestClient_WithTimeoutKeepsCallerClient(t *testing.T) {
	srv := httptest.NewServer(respond(`{}`))
	defer srv.Close()

	shared := &http.Client{Timeout: time.Minute}

	client := newClient(t, srv.URL,
		nicehash.WithHTTPClient(shared),
		nicehash.WithTimeout(time.Second),
	)

	_, err := client.RigDetail(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
}

func TestClient_CustomPathPrefix(t *testing.T) {
	seen := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.Path
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL+"/", nicehash.WithPathPrefix("/api/v9"))

	_, err := client.RigDetail(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "/api/v9/mining/rig2/a", <-seen)
}
