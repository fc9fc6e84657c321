package analyzer

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all analyzer configuration.
type Config struct {
	// Root directory of the source tree to analyze
	Root string `json:"root" yaml:"root"`

	// Number of concurrent file-scan workers
	Workers int `json:"workers" yaml:"workers"`

	// Framework hint; empty means auto-detect
	Framework string `json:"framework" yaml:"framework"`

	// Maximum files sampled during framework detection
	SampleLimit int `json:"sample_limit" yaml:"sample_limit"`

	// File extensions considered source files
	Extensions []string `json:"extensions" yaml:"extensions"`

	// Directory base names skipped entirely
	ExcludeDirs []string `json:"exclude_dirs" yaml:"exclude_dirs"`

	// File reads per second; 0 disables throttling
	FilesPerSecond float64 `json:"files_per_second" yaml:"files_per_second"`

	// Files larger than this are skipped
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Skip content deduplication
	NoDedup bool `json:"no_dedup" yaml:"no_dedup"`

	// Version-distribution skew factor for the unbalanced check
	SkewFactor int `json:"skew_factor" yaml:"skew_factor"`

	// Maximum literal path depth before hierarchy issues fire
	MaxHierarchyDepth int `json:"max_hierarchy_depth" yaml:"max_hierarchy_depth"`

	// Maximum evidence locations kept per finding
	MaxExamples int `json:"max_examples" yaml:"max_examples"`

	// Output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// OutputConfig defines report output configuration.
type OutputConfig struct {
	Format   string `json:"format" yaml:"format"` // json
	FilePath string `json:"file_path" yaml:"file_path"`
	Pretty   bool   `json:"pretty" yaml:"pretty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:     8,
		SampleLimit: 50,
		Extensions:  []string{".py"},
		ExcludeDirs: []string{
			".git", ".hg", ".svn", "__pycache__",
			"node_modules", "venv", ".venv", ".tox", "site-packages",
		},
		MaxFileSize:       2 << 20,
		SkewFactor:        5,
		MaxHierarchyDepth: 3,
		MaxExamples:       5,
		Output: OutputConfig{
			Format: "json",
			Pretty: true,
		},
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("analysis root is required")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	if c.SampleLimit < 1 {
		return fmt.Errorf("sample limit must be at least 1")
	}

	if c.SkewFactor < 2 {
		return fmt.Errorf("skew factor must be at least 2")
	}

	if c.MaxHierarchyDepth < 1 {
		return fmt.Errorf("max hierarchy depth must be at least 1")
	}

	switch c.Framework {
	case "", "flask", "django", "fastapi":
	default:
		return fmt.Errorf("unknown framework hint: %s", c.Framework)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
