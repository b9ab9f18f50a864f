package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dfxmlkit/extent"
	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// Config is the optional YAML file read with --config. Flags given on the
// command line win over it.
type Config struct {
	SectorSize int64   `yaml:"sector_size"`
	Image      string  `yaml:"image"`
	IcatPath   string  `yaml:"icat_path"`
	Color      *bool   `yaml:"color"`
	Limits     string  `yaml:"limits"`
	Logging    Logging `yaml:"logging"`
}

// Logging configures the diagnostic log written to stderr or LogDir.
type Logging struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	LogDir string `yaml:"log_dir"`
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() *Config {
	return &Config{
		SectorSize: extent.DefaultSectorSize,
		Logging:    Logging{Level: "info"},
	}
}

// LoadConfig reads the file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.SectorSize <= 0 {
		return nil, fmt.Errorf("config %s: sector_size must be positive, got %d", path, cfg.SectorSize)
	}
	if _, err := types.LimitsByName(cfg.Limits); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
