package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Selftest.Iterations != 1000 {
		t.Errorf("Expected Iterations=1000, got %d", cfg.Selftest.Iterations)
	}
	if !cfg.Selftest.RunProperties {
		t.Error("Expected RunProperties=true")
	}
	if !cfg.Selftest.RunScenarios {
		t.Error("Expected RunScenarios=true")
	}

	if !cfg.Timing.Enabled {
		t.Error("Expected Timing.Enabled=true")
	}
	if cfg.Timing.Samples != 5000 {
		t.Errorf("Expected Samples=5000, got %d", cfg.Timing.Samples)
	}

	if cfg.Server.Enabled {
		t.Error("Expected Server.Enabled=false by default")
	}
	if cfg.Server.Addr != ":8744" {
		t.Errorf("Expected Addr=:8744, got %s", cfg.Server.Addr)
	}

	if cfg.Report.Format != "json" {
		t.Errorf("Expected Format=json, got %s", cfg.Report.Format)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}

	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "ctcheck" && path != "config.toml" {
			t.Errorf("Expected path in ctcheck directory or fallback, got %s", path)
		}
	}
}

func TestGetReportPath(t *testing.T) {
	path := GetReportPath()

	if path == "" {
		t.Error("GetReportPath returned empty string")
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if filepath.Base(path) != "reports" {
			t.Errorf("Expected path to end with reports, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Selftest.Iterations = 5000
	cfg.Selftest.FailFast = true
	cfg.Timing.Samples = 9000
	cfg.Server.Enabled = true
	cfg.Report.Format = "csv"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Selftest.Iterations != 5000 {
		t.Errorf("Expected Iterations=5000, got %d", loaded.Selftest.Iterations)
	}
	if !loaded.Selftest.FailFast {
		t.Error("Expected FailFast=true")
	}
	if loaded.Timing.Samples != 9000 {
		t.Errorf("Expected Samples=9000, got %d", loaded.Timing.Samples)
	}
	if !loaded.Server.Enabled {
		t.Error("Expected Server.Enabled=true")
	}
	if loaded.Report.Format != "csv" {
		t.Errorf("Expected Format=csv, got %s", loaded.Report.Format)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Selftest.Iterations != 1000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[selftest]
iterations = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
