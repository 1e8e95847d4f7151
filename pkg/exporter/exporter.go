package exporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Exporter is responsible for bringing up a web server that serves the
// metrics of a prometheus gatherer (e.g., see `pkg/registry`).
//
type Exporter struct {
	// ListenAddress is the full address used by prometheus
	// to listen for scraping requests.
	//
	// Examples:
	// - :8080
	// - 127.0.0.2:1313
	//
	listenAddress string

	// TelemetryPath configures the path under which
	// the prometheus metrics are reported.
	//
	// For instance:
	// - /metrics
	// - /telemetry
	//
	telemetryPath string

	// gatherer is where the metrics being served come from.
	//
	gatherer prometheus.Gatherer

	// listener is the TCP listener used by the webserver. `nil` if no
	// server is running.
	//
	listener net.Listener
	server   *http.Server

	log logr.Logger
}

// Option.
//
type Option func(e *Exporter)

// WithBindAddress overrides the default `:8080` address.
//
func WithBindAddress(v string) Option {
	return func(e *Exporter) {
		e.listenAddress = v
	}
}

// WithTelemetryPath overrides the default `/metrics` path.
//
func WithTelemetryPath(v string) Option {
	return func(e *Exporter) {
		e.telemetryPath = v
	}
}

// WithLogger overrides the default development logger.
//
func WithLogger(v logr.Logger) Option {
	return func(e *Exporter) {
		e.log = v
	}
}

// New.
//
func New(gatherer prometheus.Gatherer, opts ...Option) (*Exporter, error) {
	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	e := &Exporter{
		listenAddress: ":8080",
		telemetryPath: "/metrics",
		gatherer:      gatherer,
		log:           zapr.NewLogger(defaultLogger.Named("exporter")),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Listen binds the TCP listener. It's separate from Run so that failing to
// bind can be told apart (and fail startup) before anything else runs.
//
func (e *Exporter) Listen() error {
	var err error

	e.listener, err = net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("listen on '%s': %w", e.listenAddress, err)
	}

	return nil
}

// Addr is the address the exporter is bound to, nil if not listening.
//
func (e *Exporter) Addr() net.Addr {
	if e.listener == nil {
		return nil
	}

	return e.listener.Addr()
}

// Handler is the http handler serving the metrics.
//
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(e.telemetryPath, promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{
		ErrorLog: promLogger{e.log},
	}))

	return mux
}

// Run initiates the HTTP server to serve the metrics, binding first if Listen
// wasn't called.
//
// ps.: this is a BLOCKING method - make sure you either make use of goroutines
// to not block if needed.
//
func (e *Exporter) Run(ctx context.Context) error {
	if e.listener == nil {
		if err := e.Listen(); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	e.server = &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	doneChan := make(chan error, 1)

	go func() {
		defer close(doneChan)

		e.log.WithValues(
			"addr", e.listener.Addr().String(),
			"path", e.telemetryPath,
		).Info("listening")

		err := e.server.Serve(e.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneChan <- fmt.Errorf(
				"failed listening on address %s: %w",
				e.listenAddress, err,
			)
		}
	}()

	select {
	case err := <-doneChan:
		if err != nil {
			return fmt.Errorf("donechan err: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("ctx err: %w", ctx.Err())
	}

	return nil
}

// Close gracefully closes the server and the tcp listener associated with
// it.
//
func (e *Exporter) Close() (err error) {
	if e.listener == nil {
		return nil
	}

	e.log.Info("closing")

	if e.server != nil {
		if err := e.server.Close(); err != nil {
			return fmt.Errorf("server close: %w", err)
		}

		return nil
	}

	if err := e.listener.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

// promLogger adapts logr to the logger promhttp reports errors to.
//
type promLogger struct {
	log logr.Logger
}

func (l promLogger) Println(v ...interface{}) {
	l.log.Error(errors.New(fmt.Sprint(v...)), "promhttp")
}
