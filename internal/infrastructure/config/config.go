// Package config loads the MPYLON_* environment into typed settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/mpylon/internal/pylon"
)

const prefix = "mpylon"

// API holds the remote service settings.
type API struct {
	URL            string        `envconfig:"API_URL" default:"https://api.datasift.com/v1.3"`
	Username       string        `envconfig:"USERNAME"`
	APIKey         string        `envconfig:"API_KEY"`
	Secure         bool          `envconfig:"SECURE" default:"true"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Parallel       bool          `envconfig:"PARALLEL" default:"true"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"0"`
}

// Logging holds the logger settings.
type Logging struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Config is the process-wide configuration of the CLI.
type Config struct {
	API
	Logging
	SchemaFile string `envconfig:"SCHEMA_FILE"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency < 0 {
		return nil, fmt.Errorf("MPYLON_MAX_CONCURRENCY must not be negative, got %d", cfg.MaxConcurrency)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("MPYLON_TIMEOUT must not be negative, got %s", cfg.Timeout)
	}
	return &cfg, nil
}

// RequireCredentials fails when commands that reach the remote service
// have no credentials to send.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "MPYLON_USERNAME")
	}
	if c.APIKey == "" {
		missing = append(missing, "MPYLON_API_KEY")
	}
	if len(missing) > 0 {
		return errors.New(strings.Join(missing, " and ") + " must be set")
	}
	return nil
}

// ClientConfig maps the API settings onto the client.
func (c *Config) ClientConfig() pylon.Config {
	return pylon.Config{
		BaseURL: c.URL,
		Credentials: pylon.Credentials{
			Username: c.Username,
			APIKey:   c.APIKey,
			Secure:   c.Secure,
		},
		Timeout:        c.Timeout,
		Sequential:     !c.Parallel,
		MaxConcurrency: c.MaxConcurrency,
	}
}

// NewLogger builds a logrus logger writing to out.
func (l Logging) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid MPYLON_LOG_LEVEL: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	switch strings.ToLower(l.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid MPYLON_LOG_FORMAT %q: want text or json", l.Format)
	}
	return logger, nil
}
