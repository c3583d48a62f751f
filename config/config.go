// Package config loads and saves the TOML configuration used by the
// ctcheck tool: which self-test properties and scenarios to run, the
// timing-variance check parameters, and the HTTP/report output settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable for a ctcheck run.
type Config struct {
	// Selftest controls which correctness properties and scenarios run.
	Selftest struct {
		Iterations      int  `toml:"iterations"`
		RunProperties   bool `toml:"run_properties"`
		RunScenarios    bool `toml:"run_scenarios"`
		FailFast        bool `toml:"fail_fast"`
	} `toml:"selftest"`

	// Timing controls the statistical timing-variance check.
	Timing struct {
		Enabled      bool    `toml:"enabled"`
		Samples      int     `toml:"samples"`
		BufferSize   int     `toml:"buffer_size"`
		MaxSkewRatio float64 `toml:"max_skew_ratio"`
	} `toml:"timing"`

	// Server controls the optional HTTP/WebSocket status server.
	Server struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"server"`

	// Report controls where and how results are written.
	Report struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, csv
	} `toml:"report"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Selftest.Iterations = 1000
	cfg.Selftest.RunProperties = true
	cfg.Selftest.RunScenarios = true
	cfg.Selftest.FailFast = false

	cfg.Timing.Enabled = true
	cfg.Timing.Samples = 5000
	cfg.Timing.BufferSize = 256
	cfg.Timing.MaxSkewRatio = 0.15

	cfg.Server.Enabled = false
	cfg.Server.Addr = ":8744"

	cfg.Report.OutputFile = "ctcheck-report.json"
	cfg.Report.Format = "json"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "ctcheck")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "ctcheck")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetReportPath returns the platform-specific directory for report output.
func GetReportPath() string {
	var reportDir string

	switch runtime.GOOS {
	case "windows":
		reportDir = os.Getenv("APPDATA")
		if reportDir == "" {
			reportDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		reportDir = filepath.Join(reportDir, "ctcheck", "reports")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "reports"
		}
		reportDir = filepath.Join(homeDir, ".local", "share", "ctcheck", "reports")

	default:
		return "reports"
	}

	if err := os.MkdirAll(reportDir, 0750); err != nil {
		return "reports"
	}

	return reportDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: it yields the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
