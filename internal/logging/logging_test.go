package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dkeye/peercall/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "peercall.log")
	closer := Setup(config.LogConfig{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})
	log.Debug().Str("module", "test").Msg("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"module":"test"`)
	require.Contains(t, string(data), `"message":"hello file"`)
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_BadLevelFallsBackToInfo(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	require.NoError(t, Setup(config.LogConfig{Level: "loud"}).Close())
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
