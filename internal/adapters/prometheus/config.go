package prometheus

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds Prometheus observer configuration. PushgatewayURL is optional;
// without it metrics stay in the registry for the caller to expose.
type Config struct {
	Enabled        bool   `envconfig:"PROMETHEUS_ENABLED"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	Job            string `envconfig:"PUSHGATEWAY_JOB" default:"mpylon"`
}

// LoadConfig loads Prometheus configuration from MPYLON_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("mpylon", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading prometheus config: %w", err)
	}
	return cfg, nil
}
