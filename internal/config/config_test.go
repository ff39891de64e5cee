package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, 1024, cfg.Server.MaxUploadMB)
	assert.Equal(t, int64(1024<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, 15*time.Minute, cfg.Server.DownloadTTL)
	assert.Equal(t, "auto", cfg.Codec.Backend)
	assert.Equal(t, 1024, cfg.Codec.MaxDecodedMB)
	assert.Equal(t, 1<<30, cfg.Codec.MaxDecodedBytes())
	assert.Equal(t, 256, cfg.Preview.MaxSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
}

func TestReadFileMissingDefaultIsNotAnError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	used, err := ReadFile(viper.New(), "")
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestReadFileExplicitMissingFile(t *testing.T) {
	_, err := ReadFile(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dcmpress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: "127.0.0.1:9000"
  download_ttl: 2m
codec:
  backend: native
logging:
  level: debug
`), 0o600))
	t.Setenv("DCMPRESS_PREVIEW_MAX_SIZE", "64")
	t.Setenv("DCMPRESS_SERVER_MAX_UPLOAD_MB", "8")
	t.Setenv("DCMPRESS_CODEC_MAX_DECODED_MB", "16")

	v := viper.New()
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Server.DownloadTTL)
	assert.Equal(t, 8, cfg.Server.MaxUploadMB)
	assert.Equal(t, "native", cfg.Codec.Backend)
	assert.Equal(t, 16, cfg.Codec.MaxDecodedMB)
	assert.Equal(t, 64, cfg.Preview.MaxSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"empty address", "server.addr", ""},
		{"zero upload limit", "server.max_upload_mb", 0},
		{"zero ttl", "server.download_ttl", "0s"},
		{"unknown backend", "codec.backend", "gdcm"},
		{"zero decoded limit", "codec.max_decoded_mb", 0},
		{"negative preview size", "preview.max_size", -1},
		{"bad level", "logging.level", "loud"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tc.key, tc.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
