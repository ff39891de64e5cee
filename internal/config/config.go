// Package config loads the dcmpress configuration from defaults, an optional config file and
// DCMPRESS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/j-taylor87/dcmpress/codec"
	"github.com/j-taylor87/dcmpress/preview"
)

// EnvPrefix prefixes the environment variables overriding configuration keys, with dots
// replaced by underscores: DCMPRESS_SERVER_ADDR overrides server.addr.
const EnvPrefix = "DCMPRESS"

// Config is the complete dcmpress configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Codec   CodecConfig   `mapstructure:"codec"`
	Preview PreviewConfig `mapstructure:"preview"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// MaxUploadMB bounds the request body of an upload.
	MaxUploadMB int `mapstructure:"max_upload_mb"`
	// DownloadTTL is how long the archive of a batch stays downloadable.
	DownloadTTL time.Duration `mapstructure:"download_ttl"`
}

// CodecConfig selects and bounds pixel data decoding.
type CodecConfig struct {
	Backend string `mapstructure:"backend"`
	// MaxDecodedMB bounds the native pixel data decoded from one file.
	MaxDecodedMB int `mapstructure:"max_decoded_mb"`
}

// PreviewConfig configures preview rendering.
type PreviewConfig struct {
	// MaxSize is the longest side of preview images in pixels. 0 disables previews.
	MaxSize int `mapstructure:"max_size"`
}

// LoggingConfig configures the console logger and the optional rotated log file.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File enables rotated file logging in addition to the console when set.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SetDefaults registers the default value of every configuration key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.max_upload_mb", 1024)
	v.SetDefault("server.download_ttl", 15*time.Minute)
	v.SetDefault("codec.backend", codec.DefaultBackend)
	v.SetDefault("codec.max_decoded_mb", codec.DefaultMaxDecodedSize>>20)
	v.SetDefault("preview.max_size", preview.DefaultMaxSize)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", false)
}

// ReadFile configures v to read cfgFile, or when empty a dcmpress.yaml or dcmpress.toml from
// the current directory, the user config directory or /etc/dcmpress, and reads it. A missing
// default config file is not an error. It returns the path of the file used, if any.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("dcmpress")
		v.AddConfigPath(".")
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(userConfigDir, "dcmpress"))
		}
		v.AddConfigPath("/etc/dcmpress")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && cfgFile == "" {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting of c.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.DownloadTTL <= 0 {
		return fmt.Errorf("server.download_ttl must be positive, got %v", c.Server.DownloadTTL)
	}
	if names := codec.Names(); !slices.Contains(names, c.Codec.Backend) {
		return fmt.Errorf("codec.backend must be one of: %s", strings.Join(names, ", "))
	}
	if c.Codec.MaxDecodedMB <= 0 {
		return fmt.Errorf("codec.max_decoded_mb must be positive, got %d", c.Codec.MaxDecodedMB)
	}
	if c.Preview.MaxSize < 0 {
		return fmt.Errorf("preview.max_size must not be negative, got %d", c.Preview.MaxSize)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// MaxUploadBytes is the request body limit derived from server.max_upload_mb.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// MaxDecodedBytes is the decoded pixel data limit derived from codec.max_decoded_mb.
func (c CodecConfig) MaxDecodedBytes() int {
	return c.MaxDecodedMB << 20
}
