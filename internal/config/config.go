// Package config loads nmapgraph configuration.
//
// Settings come from a YAML file, then from the environment (a .env file in
// the working directory is loaded first), then from command-line flags.
//
// Config file locations (priority order):
//  1. $NMAPGRAPH_CONFIG
//  2. ./nmapgraph.yaml
//  3. $XDG_CONFIG_HOME/nmapgraph/config.yaml
//  4. ~/.config/nmapgraph/config.yaml
//  5. /etc/nmapgraph/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when the http store lacks a token or account
var ErrMissingCredentials = errors.New("missing inventory credentials")

// Environment overrides
const (
	EnvAccessToken    = "INVENTORY_ACCESS_TOKEN"
	EnvAccount        = "INVENTORY_ACCOUNT"
	EnvEndpoint       = "INVENTORY_ENDPOINT"
	EnvDatabase       = "NMAPGRAPH_DB"
	EnvDefaultGateway = "NMAPGRAPH_DEFAULT_GATEWAY"
	EnvDryRun         = "NMAPGRAPH_DRY_RUN"
	EnvLogLevel       = "NMAPGRAPH_LOG_LEVEL"
)

const (
	defaultDBPath           = "./nmapgraph.db"
	defaultDeliveryInterval = 4 * time.Second
	defaultScanTimeout      = 10 * time.Minute
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	loadDotEnv()

	path := FindConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.applyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	loadDotEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultDBPath
	}
	if c.Delivery.Interval == 0 {
		c.Delivery.Interval = Duration(defaultDeliveryInterval)
	}
	if c.Delivery.Burst <= 0 {
		c.Delivery.Burst = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = Duration(defaultScanTimeout)
	}
}

// applyEnv overrides file settings with environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAccessToken); v != "" {
		c.Store.AccessToken = v
	}
	if v := os.Getenv(EnvAccount); v != "" {
		c.Store.Account = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Store.Endpoint = v
		c.Store.Driver = DriverHTTP
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvDefaultGateway); v != "" {
		c.Convert.DefaultGateway = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvDryRun); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvDryRun, err)
		}
		c.Delivery.DryRun = dryRun
	}
	return nil
}

// Validate checks that the selected store can be reached. A dry run needs
// no credentials.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case DriverHTTP:
		if c.Delivery.DryRun {
			return nil
		}
		if c.Store.Endpoint == "" {
			return errors.New("store.endpoint is required for the http driver")
		}
		if c.Store.AccessToken == "" || c.Store.Account == "" {
			return fmt.Errorf("%w: set %s and %s", ErrMissingCredentials, EnvAccessToken, EnvAccount)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// loadDotEnv reads ./.env into the environment. A missing file is fine and
// variables already set are left alone.
func loadDotEnv() {
	if fileExists(".env") {
		_ = godotenv.Load(".env")
	}
}
