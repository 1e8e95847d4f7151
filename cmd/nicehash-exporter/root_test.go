package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9100
key: file-key
key_secret: file-secret
organization_id: file-org
poll_interval: 30s
rig_index: 3
`), 0o600))

	t.Setenv("KEY", "env-key")
	t.Setenv("PORT", "9200")
	t.Setenv("POLL_INTERVAL", "20s")

	c := &command{}
	cmd := c.Cmd()

	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("port", "9300"))

	cfg, err := c.resolve(cmd.Flags())
	require.NoError(t, err)

	assert.Equal(t, 9300, cfg.Port)
	assert.Equal(t, "env-key", cfg.Key)
	assert.Equal(t, "file-secret", cfg.KeySecret)
	assert.Equal(t, "file-org", cfg.OrganizationID)
	assert.Equal(t, 20*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.RigIndex)
}

func TestResolve_MissingCredentials(t *testing.T) {
	t.Setenv("KEY", "")
	t.Setenv("KEY_SECRET", "")
	t.Setenv("ORGANIZATION_ID", "")

	c := &command{}

	_, err := c.resolve(c.Cmd().Flags())
	assert.Error(t, err)
}

func TestResolve_RateBurst(t *testing.T) {
	t.Setenv("KEY", "k")
	t.Setenv("KEY_SECRET", "s")
	t.Setenv("ORGANIZATION_ID", "o")
	t.Setenv("RATE_BURST", "2")

	c := &command{}
	cmd := c.Cmd()

	cfg, err := c.resolve(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.RateBurst)

	require.NoError(t, cmd.Flags().Set("rate-burst", "7"))

	cfg, err = c.resolve(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RateBurst)

	require.NoError(t, cmd.Flags().Set("rate-burst", "0"))

	_, err = c.resolve(cmd.Flags())
	assert.Error(t, err)
}
