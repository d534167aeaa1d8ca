package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Broker.Port)
	require.Equal(t, 60*time.Second, cfg.Call.OutgoingTimeout)
	require.Equal(t, 5*time.Second, cfg.Call.DiscoveryTimeout)
	require.Equal(t, time.Second, cfg.Reconnect.BaseDelay)
	require.Equal(t, 10*time.Second, cfg.Reconnect.MaxDelay)
	require.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	require.Equal(t, time.Second, cfg.Diag.Interval)
	require.InDelta(t, 0.1, cfg.Diag.BitsPerPixel, 1e-9)
	require.Len(t, cfg.ICE.Servers, 1)
	require.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICE.Servers[0].URLs)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte(`
broker:
  port: 9000
client:
  identity: alice
  context: standup
call:
  outgoing_timeout: 30s
ice:
  servers:
    - urls: ["turn:turn.example.org:3478"]
      username: u
      credential: p
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("PEERCALL_CLIENT_CONTEXT", "retro")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Broker.Port)
	require.Equal(t, "alice", cfg.Client.Identity)
	require.Equal(t, "retro", cfg.Client.Context)
	require.Equal(t, 30*time.Second, cfg.Call.OutgoingTimeout)
	require.Equal(t, "u", cfg.ICE.Servers[0].Username)
}

func TestLoadFrom_ExplicitSetWins(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	v.Set("client.identity", "bob")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	require.Equal(t, "bob", cfg.Client.Identity)
}
