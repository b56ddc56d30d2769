package config

import (
	"time"

	"nmapgraph/internal/logging"
)

// Config is the root configuration structure
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Convert  ConvertConfig  `yaml:"convert"`
	Log      logging.Config `yaml:"log"`
	Scan     ScanConfig     `yaml:"scan"`
}

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverHTTP   = "http"
)

// StoreConfig selects where entities are delivered
type StoreConfig struct {
	Driver      string `yaml:"driver"` // sqlite or http
	Path        string `yaml:"path,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	AccessToken string `yaml:"access_token,omitempty"`
	Account     string `yaml:"account,omitempty"`
}

// DeliveryConfig paces entity delivery
type DeliveryConfig struct {
	Interval Duration `yaml:"interval"`
	Burst    int      `yaml:"burst"`
	DryRun   bool     `yaml:"dry_run"`
}

// ConvertConfig holds conversion options
type ConvertConfig struct {
	DefaultGateway string `yaml:"default_gateway,omitempty"`
}

// ScanConfig holds settings for live nmap runs
type ScanConfig struct {
	Targets           []string `yaml:"targets,omitempty"`
	Profile           string   `yaml:"profile,omitempty"`
	TopPorts          int      `yaml:"top_ports,omitempty"`
	Ports             string   `yaml:"ports,omitempty"`
	ServiceDetection  bool     `yaml:"service_detection"`
	OSDetection       bool     `yaml:"os_detection"`
	SkipHostDiscovery bool     `yaml:"skip_host_discovery"`
	Timeout           Duration `yaml:"timeout"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
