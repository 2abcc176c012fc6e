// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUnitTimeoutMs = 100
	DefaultPollMs        = 1000
	DefaultTargetTimeout = 2000
)

// Load reads a YAML configuration file and applies defaults.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document and applies defaults.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	for i := range cfg.Mirror.Units {
		u := &cfg.Mirror.Units[i]
		if u.TimeoutMs == 0 {
			u.TimeoutMs = DefaultUnitTimeoutMs
		}
		if u.Poll.IntervalMs == 0 {
			u.Poll.IntervalMs = DefaultPollMs
		}
		for j := range u.Targets {
			if u.Targets[j].TimeoutMs == 0 {
				u.Targets[j].TimeoutMs = DefaultTargetTimeout
			}
			if u.Targets[j].Protocol == "" {
				u.Targets[j].Protocol = ProtocolModbus
			}
		}
	}
	if sm := cfg.Mirror.StatusMemory; sm != nil {
		if sm.TimeoutMs == 0 {
			sm.TimeoutMs = DefaultTargetTimeout
		}
		if sm.Protocol == "" {
			sm.Protocol = ProtocolModbus
		}
	}
}
