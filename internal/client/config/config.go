// Package config handles configuration for the client component.
package config

import "time"

// Config holds runtime settings for the Wayfare upload client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - Token: bearer token presented on every upload request.
//   - RequestTimeout: hard cap on a single upload request. Zero means no
//     timeout beyond the network stack; a hung upload then blocks the
//     queue until canceled.
type Config struct {
	ServerEndpointAddr string
	Token              string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.Token = ""
	c.RequestTimeout = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
