package config

import (
	inframetrics "github.com/kilianp07/resq112/infra/metrics"
)

// MetricsConfig selects the dispatch metrics sinks.
type MetricsConfig struct {
	// PromAddress exposes the Prometheus /metrics endpoint when non-empty.
	PromAddress string `json:"prom_address"`
	// InfluxEnabled activates the InfluxDB sink.
	InfluxEnabled bool `json:"influx_enabled"`
	// Influx holds the InfluxDB connection settings.
	Influx inframetrics.InfluxConfig `json:"influx"`
}

// APIConfig describes the engine's own HTTP surface.
type APIConfig struct {
	// Address the API server listens on.
	Address string `json:"address"`
	// Token, when non-empty, is required as a bearer token on log queries.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8090"
	}
}
