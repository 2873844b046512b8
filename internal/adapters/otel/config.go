package otel

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string `envconfig:"OTEL_ENDPOINT"`
	Enabled  bool   `envconfig:"OTEL_ENABLED"`
	Insecure bool   `envconfig:"OTEL_INSECURE"`
}

// LoadConfig loads OTEL configuration from MPYLON_OTEL_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("mpylon", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading otel config: %w", err)
	}
	return cfg, nil
}
