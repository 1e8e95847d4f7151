package nicehash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cirocosta/nicehash-exporter/pkg/signer"
)

const (
	// DefaultBaseURL is the production NiceHash API host.
	//
	DefaultBaseURL = "https://api2.nicehash.com"

	// DefaultPathPrefix is the versioned prefix every endpoint lives
	// under. It's part of what gets signed.
	//
	DefaultPathPrefix = "/main/api/v2"

	// DefaultTimeout bounds how long a single call may take so that a
	// stalled request can't hold a poll cycle forever.
	//
	DefaultTimeout = 5 * time.Second

	maxBodySize = 8 << 20
)

// Header names carrying the authentication envelope.
//
const (
	HeaderTime           = "X-Time"
	HeaderNonce          = "X-Nonce"
	HeaderOrganizationID = "X-Organization-Id"
	HeaderAuth           = "X-Auth"
	HeaderRequestID      = "X-Request-Id"
)

// Observer gets notified of the outcome of every call issued by the client.
//
// `name` is a low-cardinality identifier of the operation (rig ids never
// show up in it).
//
type Observer interface {
	ObserveRequest(name string, took time.Duration, err error)
}

// Client is a signing HTTP client for the NiceHash API.
//
type Client struct {
	baseURL    string
	pathPrefix string
	creds      signer.Credentials

	httpClient *http.Client

	// limiter paces outgoing calls.
	//
	// optional: if nil, calls are issued as soon as requested.
	//
	limiter *rate.Limiter

	// observer is told about every call's latency and outcome.
	//
	// optional: if nil, nothing gets reported.
	//
	observer Observer

	now   func() time.Time
	nonce func() (string, error)

	log logr.Logger
}

// Option is a functional argument to override the client's defaults.
//
type Option func(c *Client)

// WithHTTPClient overrides the default http client (which carries the
// DefaultTimeout).
//
func WithHTTPClient(v *http.Client) Option {
	return func(c *Client) {
		c.httpClient = v
	}
}

// WithTimeout overrides the per-call timeout. The http.Client in use is
// copied first, so one given through WithHTTPClient is left untouched.
//
func WithTimeout(v time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = v
		c.httpClient = &hc
	}
}

// WithPathPrefix overrides DefaultPathPrefix.
//
func WithPathPrefix(v string) Option {
	return func(c *Client) {
		c.pathPrefix = v
	}
}

// WithRateLimit paces calls to at most `perSecond` per second, allowing
// bursts of `burst`.
//
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithObserver registers an observer for call outcomes.
//
func WithObserver(v Observer) Option {
	return func(c *Client) {
		c.observer = v
	}
}

// WithLogger overrides the default development logger.
//
func WithLogger(v logr.Logger) Option {
	return func(c *Client) {
		c.log = v
	}
}

// WithClock overrides the clock used for `X-Time`.
//
func WithClock(v func() time.Time) Option {
	return func(c *Client) {
		c.now = v
	}
}

// New instantiates a client targetting `baseURL` (e.g.,
// https://api2.nicehash.com) authenticating with `creds`.
//
func New(baseURL string, creds signer.Credentials, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url '%s': %w", baseURL, err)
	}

	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		pathPrefix: DefaultPathPrefix,
		creds:      creds,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
		nonce:      signer.NewNonce,
		log:        zapr.NewLogger(defaultLogger.Named("nicehash")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Do issues a single signed call to `endpoint` (relative to the path prefix,
// e.g. `/mining/groups/list`) and decodes the JSON response into `out`.
//
// `name` is what the call is reported as to the Observer (e.g.,
// `groups_list`), keeping the set of names bounded even for endpoints that
// carry identifiers in their path.
//
// Any failure is returned wrapping ErrTransport or ErrProtocol.
//
func (c *Client) Do(
	ctx context.Context, name, method, endpoint string, params url.Values, out interface{},
) error {
	return c.call(ctx, name, method, endpoint, params, out)
}

func (c *Client) call(
	ctx context.Context, name, method, endpoint string, params url.Values, out interface{},
) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(name, time.Since(start), err)
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter wait: %v", ErrTransport, err)
		}
	}

	req, err := c.newRequest(ctx, method, endpoint, params)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if err := decode(resp.StatusCode, body, out); err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	return nil
}

// newRequest builds the http request along with its authentication
// headers. The query string placed on the URL is the exact encoding that got
// signed.
//
func (c *Client) newRequest(
	ctx context.Context, method, endpoint string, params url.Values,
) (*http.Request, error) {
	nonce, err := c.nonce()
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	requestID, err := c.nonce()
	if err != nil {
		return nil, fmt.Errorf("request id: %w", err)
	}

	signed := signer.Request{
		Method: method,
		Path:   c.pathPrefix + endpoint,
		Query:  params,
	}

	timestamp := signer.Timestamp(c.now())
	signature := signer.Sign(c.creds, signed, timestamp, nonce)

	u := c.baseURL + signed.Path
	if query := signed.EncodedQuery(); query != "" {
		u += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request '%s': %w", u, err)
	}

	req.Header.Set(HeaderTime, timestamp)
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderOrganizationID, c.creds.OrganizationID)
	req.Header.Set(HeaderAuth, c.creds.Key+":"+signature)
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")

	c.log.V(1).Info("request",
		"method", method,
		"path", signed.Path,
		"request-id", requestID,
	)

	return req, nil
}

// decode validates a response body and unmarshals it into `out`.
//
func decode(status int, body []byte, out interface{}) error {
	if !json.Valid(body) {
		return fmt.Errorf("%w: status %d: non-json body", ErrProtocol, status)
	}

	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.present() {
		return fmt.Errorf("%w: status %d: %v", ErrProtocol, status, apiErr)
	}

	if status < 200 || status > 299 {
		return fmt.Errorf("%w: unexpected status %d", ErrProtocol, status)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", ErrProtocol, err)
	}

	return nil
}
