package config

import (
	"fmt"

	"github.com/kilianp07/resq112/auth"
	"github.com/kilianp07/resq112/core/model"
)

// FeedConfig points the ingestion pipeline at the external call feed.
type FeedConfig struct {
	// Endpoint is the emergency feed URL, also used as the base for call
	// registry PATCHes.
	Endpoint string `json:"endpoint"`
	// PollIntervalSeconds is the feed poll period.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// Auth holds optional OAuth2 client credentials for the external
	// services. Left empty, requests go out unauthenticated.
	Auth auth.Conf `json:"auth"`
}

// SetDefaults applies sane defaults.
func (c *FeedConfig) SetDefaults() {
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c FeedConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("feed endpoint is required")
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll interval must be at least 1 second")
	}
	return nil
}

// RosterConfig maps each resource type to its station roster endpoint.
// Keys are resource type names ("medical", "police", ...).
type RosterConfig struct {
	Endpoints map[string]string `json:"endpoints"`
}

// Validate ensures every configured key names a known resource type.
func (c RosterConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one roster endpoint is required")
	}
	for name, url := range c.Endpoints {
		if _, ok := model.ResourceTypeFromString(name); !ok {
			return fmt.Errorf("unknown resource type %q in roster endpoints", name)
		}
		if url == "" {
			return fmt.Errorf("empty roster endpoint for %s", name)
		}
	}
	return nil
}

// ByType resolves the endpoint map to typed keys.
func (c RosterConfig) ByType() map[model.ResourceType]string {
	out := make(map[model.ResourceType]string, len(c.Endpoints))
	for name, url := range c.Endpoints {
		if t, ok := model.ResourceTypeFromString(name); ok {
			out[t] = url
		}
	}
	return out
}
