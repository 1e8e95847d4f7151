package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cirocosta/nicehash-exporter/pkg/nicehash"
	"github.com/cirocosta/nicehash-exporter/pkg/poller"
	"github.com/cirocosta/nicehash-exporter/pkg/signer"
)

// Default values applied when fields are absent from the config file.
//
const (
	DefaultPort          = 8080
	DefaultTelemetryPath = "/metrics"
	DefaultRateLimit     = 10
	DefaultRateBurst     = 5
)

// Environment variables overriding file / default values.
//
const (
	EnvPort           = "PORT"
	EnvAPIURL         = "API_URL"
	EnvAPIURLPrefix   = "API_URL_PREFIX"
	EnvOrganizationID = "ORGANIZATION_ID"
	EnvKey            = "KEY"
	EnvKeySecret      = "KEY_SECRET"
	EnvFiat           = "FIAT"
	EnvPollInterval   = "POLL_INTERVAL"
	EnvTimeout        = "REQUEST_TIMEOUT"
	EnvRateLimit      = "RATE_LIMIT"
	EnvRateBurst      = "RATE_BURST"
	EnvRigIndex       = "RIG_INDEX"
	EnvDeviceIndex    = "DEVICE_INDEX"
)

// Config is the full set of settings of the exporter.
//
type Config struct {
	// Port the metrics endpoint listens on.
	Port int `yaml:"port"`

	// TelemetryPath is the path metrics are served under.
	TelemetryPath string `yaml:"telemetry_path"`

	// APIURL is the base URL of the NiceHash API.
	APIURL string `yaml:"api_url"`

	// APIURLPrefix is the versioned path prefix of every endpoint.
	APIURLPrefix string `yaml:"api_url_prefix"`

	OrganizationID string `yaml:"organization_id"`
	Key            string `yaml:"key"`
	KeySecret      string `yaml:"key_secret"`

	// Fiat is the currency rates get expressed in.
	Fiat string `yaml:"fiat"`

	// PollInterval is the delay between two poll cycles.
	PollInterval time.Duration `yaml:"poll_interval"`

	// RequestTimeout bounds every call to the API.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RateLimit caps the number of calls per second, 0 disabling it.
	// RateBurst is how many calls may go out at once, at least 1 when
	// RateLimit is set.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	// RigIndex and DeviceIndex select the monitored rig of the listing
	// and the monitored device of that rig.
	RigIndex    int `yaml:"rig_index"`
	DeviceIndex int `yaml:"device_index"`
}

// Default returns the configuration used when nothing overrides it.
//
func Default() Config {
	return Config{
		Port:           DefaultPort,
		TelemetryPath:  DefaultTelemetryPath,
		APIURL:         nicehash.DefaultBaseURL,
		APIURLPrefix:   nicehash.DefaultPathPrefix,
		Fiat:           poller.DefaultFiat,
		PollInterval:   poller.DefaultInterval,
		RequestTimeout: nicehash.DefaultTimeout,
		RateLimit:      DefaultRateLimit,
		RateBurst:      DefaultRateBurst,
		RigIndex:       poller.DefaultRigIndex,
		DeviceIndex:    poller.DefaultDeviceIndex,
	}
}

// Load reads a YAML file on top of the defaults.
//
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal '%s': %w", path, err)
	}

	return cfg, nil
}

// LookupFunc retrieves an environment variable, see os.LookupEnv.
//
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields with the environment variables that are set.
//
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		EnvAPIURL:         &c.APIURL,
		EnvAPIURLPrefix:   &c.APIURLPrefix,
		EnvOrganizationID: &c.OrganizationID,
		EnvKey:            &c.Key,
		EnvKeySecret:      &c.KeySecret,
		EnvFiat:           &c.Fiat,
	}

	for env, field := range strs {
		if v, ok := lookup(env); ok && v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		EnvPort:        &c.Port,
		EnvRigIndex:    &c.RigIndex,
		EnvDeviceIndex: &c.DeviceIndex,
		EnvRateBurst:   &c.RateBurst,
	}

	for env, field := range ints {
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}

		*field = n
	}

	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}

		c.RateLimit = f
	}

	durations := map[string]*time.Duration{
		EnvPollInterval: &c.PollInterval,
		EnvTimeout:      &c.RequestTimeout,
	}

	for env, field := range durations {
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}

		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}

		*field = d
	}

	return nil
}

// Validate performs minimal validation for required fields.
//
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}

	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api url '%s' is not absolute", c.APIURL))
	}

	if c.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}

	if c.KeySecret == "" {
		errs = append(errs, errors.New("key secret is required"))
	}

	if c.OrganizationID == "" {
		errs = append(errs, errors.New("organization id is required"))
	}

	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit can't be negative"))
	}

	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf(
			"rate burst %d must be at least 1 when rate limiting", c.RateBurst))
	}

	if c.RigIndex < 0 || c.DeviceIndex < 0 {
		errs = append(errs, errors.New("rig and device indexes can't be negative"))
	}

	return errors.Join(errs...)
}

// Credentials extracts the API credentials.
//
func (c Config) Credentials() signer.Credentials {
	return signer.Credentials{
		Key:            c.Key,
		Secret:         c.KeySecret,
		OrganizationID: c.OrganizationID,
	}
}

// BindAddress is the address the metrics endpoint listens on.
//
func (c Config) BindAddress() string {
	return ":" + strconv.Itoa(c.Port)
}
