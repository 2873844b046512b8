package turso

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/mpylon/internal/infrastructure/database"
)

// readRetries bounds retries of reads that hit a dropped Turso stream.
const readRetries = 2

// Config locates the libsql database that stores imported schemas and the
// dispatch log.
type Config struct {
	URL       string `envconfig:"DATABASE_URL"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
}

// LoadConfig reads MPYLON_DATABASE_URL and MPYLON_AUTH_TOKEN.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("mpylon", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading database config: %w", err)
	}
	return cfg, nil
}

// Enabled reports whether a database was configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// Remote reports whether the URL points at a Turso server rather than a
// local file.
func (c Config) Remote() bool {
	u, err := url.Parse(c.URL)
	return err == nil && u.Scheme != "" && u.Scheme != "file"
}

// DSN returns the connection string handed to the libsql driver. Local
// file URLs never carry a token.
func (c Config) DSN() (string, error) {
	if c.URL == "" {
		return "", errors.New("MPYLON_DATABASE_URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parsing database url: %w", err)
	}
	if u.Scheme == "file" || c.AuthToken == "" {
		return c.URL, nil
	}
	q := u.Query()
	q.Set("authToken", c.AuthToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func NewDB(cfg Config) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	client, err := database.New(dsn, cfg.Remote())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return client.DB, nil
}
