// Package config loads worker configuration from environment variables
// (NESTD_ prefix) and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig is the object-store connection configuration.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Config is the full worker configuration.
type Config struct {
	DatabaseURL  string        `mapstructure:"database_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	LogLevel     string        `mapstructure:"log_level"`
	Storage      StorageConfig `mapstructure:"storage"`
}

// Load reads configuration. With an empty path, defaults, environment
// variables, and an optional $HOME/.nestd/config.yaml apply; a missing
// file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("database_url", "postgres://localhost:5432/nestd?sslmode=disable")
	v.SetDefault("poll_interval", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage.endpoint", "localhost:9000")
	// Empty defaults register the keys so env-only values survive Unmarshal.
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "nestd")
	v.SetDefault("storage.use_ssl", false)

	v.SetEnvPrefix("NESTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".nestd"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("poll_interval must be positive, got %s", cfg.PollInterval)
	}
	return cfg, nil
}
