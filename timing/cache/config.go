package cache

import (
	"encoding/json"
	"fmt"
	"os"
)

// HierarchyConfig holds the configuration for the modeled cache hierarchy.
type HierarchyConfig struct {
	// L1I configures the L1 instruction cache.
	L1I Config `json:"l1i"`

	// L1D configures the L1 data cache.
	L1D Config `json:"l1d"`
}

// DefaultHierarchyConfig returns a HierarchyConfig with default L1 values.
func DefaultHierarchyConfig() *HierarchyConfig {
	return &HierarchyConfig{
		L1I: DefaultL1IConfig(),
		L1D: DefaultL1DConfig(),
	}
}

// LoadHierarchyConfig loads a HierarchyConfig from a JSON file.
func LoadHierarchyConfig(path string) (*HierarchyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultHierarchyConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a HierarchyConfig to a JSON file.
func (c *HierarchyConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Validate checks that each cache geometry is well formed.
func (c *HierarchyConfig) Validate() error {
	if err := validateConfig("l1i", c.L1I); err != nil {
		return err
	}
	return validateConfig("l1d", c.L1D)
}

func validateConfig(name string, cfg Config) error {
	if cfg.BlockSize <= 0 {
		return fmt.Errorf("%s: block_size must be > 0", name)
	}
	if cfg.Associativity <= 0 {
		return fmt.Errorf("%s: associativity must be > 0", name)
	}
	if cfg.Size <= 0 || cfg.Size%(cfg.Associativity*cfg.BlockSize) != 0 {
		return fmt.Errorf("%s: size must be a positive multiple of associativity*block_size", name)
	}
	return nil
}
