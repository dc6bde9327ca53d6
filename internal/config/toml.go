// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analyze AnalyzeConfig `toml:"analyze"`
	Output  OutputConfig  `toml:"output"`
}

// AnalyzeConfig maps key-search settings.
type AnalyzeConfig struct {
	TopK       *int     `toml:"top-k"`
	Workers    *int     `toml:"workers"`
	MinLetters *int     `toml:"min-letters"`
	IoCMin     *float64 `toml:"ioc-min"`
	IoCMax     *float64 `toml:"ioc-max"`
}

// OutputConfig maps output settings for decrypted files.
type OutputConfig struct {
	Dir *string `toml:"dir"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
