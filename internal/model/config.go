package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds the complete workbench configuration
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig locates the project database
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // bbolt file holding all projects
}

// CacheConfig controls the extraction result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ExtractionConfig controls IOC extraction input handling
type ExtractionConfig struct {
	StripHTML     bool  `yaml:"strip_html" mapstructure:"strip_html"`           // Treat input as HTML and extract visible text first
	MaxInputBytes int64 `yaml:"max_input_bytes" mapstructure:"max_input_bytes"` // 0 = unlimited
}

// OutputConfig controls rendering
type OutputConfig struct {
	Defanged      bool `yaml:"defanged" mapstructure:"defanged"`
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// ConcurrencyConfig controls batch extraction
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	base := defaultBaseDir()
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join(base, "projects.db"),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Extraction: ExtractionConfig{
			StripHTML:     false,
			MaxInputBytes: 10_000_000,
		},
		Output: OutputConfig{
			Defanged:      false,
			Verbose:       false,
			IncludeFooter: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
	}
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".intelbench"
	}
	return filepath.Join(home, ".intelbench")
}
