package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-taylor87/dcmpress/internal/config"
)

func TestSetupConsole(t *testing.T) {
	var console bytes.Buffer
	closer, err := setup(config.LoggingConfig{Level: "warn"}, &console)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	log.Info().Msg("quiet")
	log.Warn().Msg("loud")
	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "loud")
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dcmpress.log")
	var console bytes.Buffer
	closer, err := setup(config.LoggingConfig{Level: "info", File: path, MaxSizeMB: 1}, &console)
	require.NoError(t, err)

	log.Info().Str("file", "ct.dcm").Msg("processed file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file":"ct.dcm"`)
	assert.Contains(t, console.String(), "processed file")
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	closer, err := setup(config.LoggingConfig{Level: "chatty"}, &bytes.Buffer{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
