package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Feed     FeedConfig     `json:"feed"`
	Rosters  RosterConfig   `json:"rosters"`
	Dispatch DispatchConfig `json:"dispatch"`
	Audit    AuditConfig    `json:"audit"`
	Metrics  MetricsConfig  `json:"metrics"`
	API      APIConfig      `json:"api"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Feed.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Feed.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Rosters.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
