// Package config loads the service configuration from config.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"churnpredict/ml"
)

// Config is the full service configuration.
type Config struct {
	Http struct {
		Port         int           `yaml:"port" env:"PORT"`
		Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
		MaxBodyBytes int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	} `yaml:"http" envPrefix:"HTTP_"`
	Model struct {
		FileName   string   `yaml:"file_name" env:"FILE"`
		SearchDirs []string `yaml:"search_dirs" env:"SEARCH_DIRS" envSeparator:":"`
		CacheSize  int      `yaml:"cache_size" env:"CACHE_SIZE"`
	} `yaml:"model" envPrefix:"MODEL_"`
	Log struct {
		Level       string `yaml:"level" env:"LEVEL"`
		File        string `yaml:"file" env:"FILE"`
		MaxSizeMB   int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
		MaxBackups  int    `yaml:"max_backups" env:"MAX_BACKUPS"`
		MaxAgeDays  int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
		Development bool   `yaml:"development" env:"DEVELOPMENT"`
	} `yaml:"log" envPrefix:"LOG_"`
}

// EnvPrefix namespaces every environment override, e.g. CHURN_HTTP_PORT.
const EnvPrefix = "CHURN_"

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.Http.Port = 8501
	c.Http.Timeout = 30 * time.Second
	c.Http.MaxBodyBytes = 64 << 10
	c.Model.FileName = ml.DefaultArtifactName
	c.Model.CacheSize = 256
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	return &c
}

// Load reads path over the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(c); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Http.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Model.FileName == "" {
		return errors.New("model.file_name is required")
	}
	if c.Model.CacheSize < 0 {
		return errors.New("model.cache_size must not be negative")
	}
	return nil
}
