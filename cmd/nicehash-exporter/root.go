package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cirocosta/nicehash-exporter/pkg/config"
	"github.com/cirocosta/nicehash-exporter/pkg/exporter"
	"github.com/cirocosta/nicehash-exporter/pkg/nicehash"
	"github.com/cirocosta/nicehash-exporter/pkg/poller"
	"github.com/cirocosta/nicehash-exporter/pkg/registry"
)

type command struct {
	configFilepath string

	// flags holds the values of the command line flags. Only the ones
	// explicitly set override the file and the environment.
	//
	flags config.Config
}

func (c *command) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nicehash-exporter",
		Short: "Prometheus exporter for nicehash mining metrics",
		Long: "Prometheus exporter for nicehash mining metrics.\n\n" +
			"Credentials are read from the environment (KEY, KEY_SECRET,\n" +
			"ORGANIZATION_ID) or from the config file.",
		SilenceUsage: true,
		RunE:         c.RunE,
	}

	defaults := config.Default()

	cmd.Flags().StringVar(&c.configFilepath, "config",
		"", "filepath of a yaml config file")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")

	cmd.Flags().IntVar(&c.flags.Port, "port",
		defaults.Port, "port to bind the prometheus server to")

	cmd.Flags().StringVar(&c.flags.TelemetryPath, "telemetry-path",
		defaults.TelemetryPath, "endpoint at which prometheus metrics "+
			"are served")

	cmd.Flags().StringVar(&c.flags.APIURL, "api-url",
		defaults.APIURL, "base url of the nicehash api")

	cmd.Flags().StringVar(&c.flags.APIURLPrefix, "api-url-prefix",
		defaults.APIURLPrefix, "path prefix of every nicehash api endpoint")

	cmd.Flags().StringVar(&c.flags.OrganizationID, "organization-id",
		"", "nicehash organization id")

	cmd.Flags().StringVar(&c.flags.Fiat, "fiat",
		defaults.Fiat, "fiat currency to express rates in")

	cmd.Flags().DurationVar(&c.flags.PollInterval, "poll-interval",
		defaults.PollInterval, "delay between two poll cycles")

	cmd.Flags().DurationVar(&c.flags.RequestTimeout, "request-timeout",
		defaults.RequestTimeout, "timeout of each call to the nicehash api")

	cmd.Flags().Float64Var(&c.flags.RateLimit, "rate-limit",
		defaults.RateLimit, "maximum number of calls per second to the "+
			"nicehash api (0 to disable)")

	cmd.Flags().IntVar(&c.flags.RateBurst, "rate-burst",
		defaults.RateBurst, "number of calls to the nicehash api allowed "+
			"to go out at once when rate limiting")

	cmd.Flags().IntVar(&c.flags.RigIndex, "rig-index",
		defaults.RigIndex, "position (zero-based) in the rig listing of "+
			"the rig whose details are monitored")

	cmd.Flags().IntVar(&c.flags.DeviceIndex, "device-index",
		defaults.DeviceIndex, "position (zero-based) of the device whose "+
			"readings are monitored")

	return cmd
}

// resolve layers the configuration: defaults, then the config file, then the
// environment, then explicitly set flags.
//
func (c *command) resolve(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()

	if c.configFilepath != "" {
		var err error

		cfg, err = config.Load(c.configFilepath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, fmt.Errorf("apply env: %w", err)
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = c.flags.Port
		case "telemetry-path":
			cfg.TelemetryPath = c.flags.TelemetryPath
		case "api-url":
			cfg.APIURL = c.flags.APIURL
		case "api-url-prefix":
			cfg.APIURLPrefix = c.flags.APIURLPrefix
		case "organization-id":
			cfg.OrganizationID = c.flags.OrganizationID
		case "fiat":
			cfg.Fiat = c.flags.Fiat
		case "poll-interval":
			cfg.PollInterval = c.flags.PollInterval
		case "request-timeout":
			cfg.RequestTimeout = c.flags.RequestTimeout
		case "rate-limit":
			cfg.RateLimit = c.flags.RateLimit
		case "rate-burst":
			cfg.RateBurst = c.flags.RateBurst
		case "rig-index":
			cfg.RigIndex = c.flags.RigIndex
		case "device-index":
			cfg.DeviceIndex = c.flags.DeviceIndex
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validate: %w", err)
	}

	return cfg, nil
}

func (c *command) RunE(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := c.resolve(cmd.Flags())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("zap new development: %w", err)
	}
	defer func() { _ = defaultLogger.Sync() }()

	log := zapr.NewLogger(defaultLogger)
	reg := registry.New()

	clientOpts := []nicehash.Option{
		nicehash.WithPathPrefix(cfg.APIURLPrefix),
		nicehash.WithTimeout(cfg.RequestTimeout),
		nicehash.WithObserver(poller.NewRequestObserver(reg)),
		nicehash.WithLogger(log.WithName("nicehash")),
	}

	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts,
			nicehash.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		)
	}

	client, err := nicehash.New(cfg.APIURL, cfg.Credentials(), clientOpts...)
	if err != nil {
		return fmt.Errorf("new client '%s': %w", cfg.APIURL, err)
	}

	p, err := poller.New(client, reg,
		poller.WithInterval(cfg.PollInterval),
		poller.WithRigIndex(cfg.RigIndex),
		poller.WithDeviceIndex(cfg.DeviceIndex),
		poller.WithFiat(cfg.Fiat),
		poller.WithLogger(log.WithName("poller")),
	)
	if err != nil {
		return fmt.Errorf("new poller: %w", err)
	}

	prometheusExporter, err := exporter.New(reg.Gatherer(),
		exporter.WithBindAddress(cfg.BindAddress()),
		exporter.WithTelemetryPath(cfg.TelemetryPath),
		exporter.WithLogger(log.WithName("exporter")),
	)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer prometheusExporter.Close()

	if err := prometheusExporter.Listen(); err != nil {
		return fmt.Errorf("prometheus exporter listen: %w", err)
	}

	log.WithValues(
		"api-url", cfg.APIURL,
		"organization-id", cfg.OrganizationID,
		"started-at", time.Now().UTC(),
	).Info("starting")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := prometheusExporter.Run(ctx); err != nil {
			return fmt.Errorf("prometheus exporter run: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := p.Run(ctx); err != nil {
			return fmt.Errorf("poller run: %w", err)
		}

		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
