/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/aerobonkers/pkg/engine"
	"github.com/ssargent/aerobonkers/pkg/rom"
)

// Config represents an aerobonkers run configuration
type Config struct {
	Seed         int64           `yaml:"seed"`
	Output       string          `yaml:"output"`
	Flags        map[string]bool `yaml:"flags"`
	RandomDegree float64         `yaml:"random_degree,omitempty"`
	Patches      []Patch         `yaml:"patches,omitempty"`
	Logging      Logging         `yaml:"logging"`
	Ledger       Ledger          `yaml:"ledger"`
	Metrics      Metrics         `yaml:"metrics"`
}

// Patch is a byte run written before randomization. Exactly one of Offset
// (linear image offset) or Address (SNES bus address) locates it.
type Patch struct {
	Offset  *int   `yaml:"offset,omitempty"`
	Address string `yaml:"address,omitempty"`
	Bytes   string `yaml:"bytes"` // hex, whitespace ignored
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Ledger contains run ledger configuration. An empty Dir disables it.
type Ledger struct {
	Dir string `yaml:"dir"`
}

// Metrics contains metrics export configuration. An empty File disables it.
type Metrics struct {
	File string `yaml:"file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Output: "aerobonkers-output.sfc",
		Flags: map[string]bool{
			"data":  true,
			"names": true,
			"crazy": false,
		},
		Logging: Logging{
			Level: "warn",
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./aerobonkers.yaml"
	}

	configDir := filepath.Join(homeDir, ".config", "aerobonkers")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// EnginePatches resolves every patch to a linear image offset
func (c *Config) EnginePatches(m rom.Mapping) ([]engine.Patch, error) {
	patches := make([]engine.Patch, 0, len(c.Patches))
	for i, p := range c.Patches {
		ep, err := p.Resolve(m)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		patches = append(patches, ep)
	}
	return patches, nil
}

// Resolve converts the patch into an engine patch, mapping an SNES address
// through m
func (p Patch) Resolve(m rom.Mapping) (engine.Patch, error) {
	data, err := hex.DecodeString(strings.Join(strings.Fields(p.Bytes), ""))
	if err != nil {
		return engine.Patch{}, fmt.Errorf("invalid patch bytes: %w", err)
	}
	if len(data) == 0 {
		return engine.Patch{}, fmt.Errorf("empty patch")
	}

	switch {
	case p.Offset != nil && p.Address != "":
		return engine.Patch{}, fmt.Errorf("patch has both offset and address")
	case p.Offset != nil:
		return engine.Patch{Offset: *p.Offset, Data: data}, nil
	case p.Address != "":
		var addr uint32
		if _, err := fmt.Sscanf(strings.TrimPrefix(strings.ToLower(p.Address), "0x"), "%x", &addr); err != nil {
			return engine.Patch{}, fmt.Errorf("invalid patch address %q: %w", p.Address, err)
		}
		offset, err := m.ToPC(addr)
		if err != nil {
			return engine.Patch{}, fmt.Errorf("patch address %q: %w", p.Address, err)
		}
		return engine.Patch{Offset: offset, Data: data}, nil
	default:
		return engine.Patch{}, fmt.Errorf("patch needs an offset or an address")
	}
}
