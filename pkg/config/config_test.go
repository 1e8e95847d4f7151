package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/nicehash-exporter/pkg/config"
)

func envOf(m map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Key = "k"
	cfg.KeySecret = "s"
	cfg.OrganizationID = "o"

	return cfg
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api2.nicehash.com", cfg.APIURL)
	assert.Equal(t, "/main/api/v2", cfg.APIURLPrefix)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.RigIndex)
	assert.Equal(t, 1, cfg.DeviceIndex)
	assert.Equal(t, ":8080", cfg.BindAddress())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9100
organization_id: org-from-file
key: key-from-file
poll_interval: 10s
rig_index: 0
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "org-from-file", cfg.OrganizationID)
	assert.Equal(t, "key-from-file", cfg.Key)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.RigIndex)
	assert.Equal(t, "https://api2.nicehash.com", cfg.APIURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0o600))

	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	cfg.Key = "from-file"

	err := cfg.ApplyEnv(envOf(map[string]string{
		"PORT":            "9000",
		"API_URL":         "http://localhost:1234",
		"API_URL_PREFIX":  "/v9",
		"ORGANIZATION_ID": "org",
		"KEY":             "key",
		"KEY_SECRET":      "secret",
		"POLL_INTERVAL":   "2s",
		"DEVICE_INDEX":    "0",
		"RATE_LIMIT":      "2.5",
		"RATE_BURST":      "3",
		"FIAT":            "",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "http://localhost:1234", cfg.APIURL)
	assert.Equal(t, "/v9", cfg.APIURLPrefix)
	assert.Equal(t, "org", cfg.OrganizationID)
	assert.Equal(t, "key", cfg.Key)
	assert.Equal(t, "secret", cfg.KeySecret)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.DeviceIndex)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, "USD", cfg.Fiat)

	creds := cfg.Credentials()
	assert.Equal(t, "key", creds.Key)
	assert.Equal(t, "secret", creds.Secret)
	assert.Equal(t, "org", creds.OrganizationID)
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := config.Default()
	assert.Error(t, cfg.ApplyEnv(envOf(map[string]string{"PORT": "http"})))

	cfg = config.Default()
	assert.Error(t, cfg.ApplyEnv(envOf(map[string]string{"REQUEST_TIMEOUT": "5"})))

	cfg = config.Default()
	assert.Error(t, cfg.ApplyEnv(envOf(map[string]string{"RATE_LIMIT": "fast"})))
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	for name, mutate := range map[string]func(c *config.Config){
		"no key":        func(c *config.Config) { c.Key = "" },
		"no secret":     func(c *config.Config) { c.KeySecret = "" },
		"no org":        func(c *config.Config) { c.OrganizationID = "" },
		"bad port":      func(c *config.Config) { c.Port = 70000 },
		"relative url":  func(c *config.Config) { c.APIURL = "api2.nicehash.com" },
		"zero interval": func(c *config.Config) { c.PollInterval = 0 },
		"zero timeout":  func(c *config.Config) { c.RequestTimeout = 0 },
		"negative rig":  func(c *config.Config) { c.RigIndex = -1 },
		"zero burst":    func(c *config.Config) { c.RateBurst = 0 },
		"negative rate": func(c *config.Config) { c.RateLimit = -1 },
	} {
		cfg := validConfig()
		mutate(&cfg)

		assert.Error(t, cfg.Validate(), name)
	}
}

func TestValidate_BurstIgnoredWithoutRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit = 0
	cfg.RateBurst = 0

	assert.NoError(t, cfg.Validate())
}
