package config

import (
	"fmt"

	"github.com/kilianp07/resq112/core/model"
)

// DispatchConfig tunes the dispatch coordinator.
type DispatchConfig struct {
	// RadiusMeters bounds the call search around a station.
	RadiusMeters float64 `json:"radius_meters"`
	// Confirmation selects the confirmation policy: "auto" approves every
	// action, "deny" declines everything (dry-run mode).
	Confirmation string `json:"confirmation"`
	// LogEndpoints maps resource type names to the external dispatch log
	// sink URL for that type.
	LogEndpoints map[string]string `json:"log_endpoints"`
}

// SetDefaults applies sane defaults.
func (c *DispatchConfig) SetDefaults() {
	if c.RadiusMeters == 0 {
		c.RadiusMeters = 200
	}
	if c.Confirmation == "" {
		c.Confirmation = "auto"
	}
}

// Validate checks mandatory fields.
func (c DispatchConfig) Validate() error {
	if c.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive")
	}
	if c.Confirmation != "auto" && c.Confirmation != "deny" {
		return fmt.Errorf("unknown confirmation policy %q", c.Confirmation)
	}
	for name, url := range c.LogEndpoints {
		if _, ok := model.ResourceTypeFromString(name); !ok {
			return fmt.Errorf("unknown resource type %q in log endpoints", name)
		}
		if url == "" {
			return fmt.Errorf("empty log endpoint for %s", name)
		}
	}
	return nil
}

// LogEndpointsByType resolves the endpoint map to typed keys.
func (c DispatchConfig) LogEndpointsByType() map[model.ResourceType]string {
	out := make(map[model.ResourceType]string, len(c.LogEndpoints))
	for name, url := range c.LogEndpoints {
		if t, ok := model.ResourceTypeFromString(name); ok {
			out[t] = url
		}
	}
	return out
}
