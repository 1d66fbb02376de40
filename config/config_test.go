package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output.Directory != "" {
		t.Errorf("Expected empty output directory, got %s", cfg.Output.Directory)
	}
	if !cfg.Output.KeepExpanded {
		t.Error("Expected KeepExpanded=true")
	}
	if cfg.Warnings.Suppress {
		t.Error("Expected Suppress=false")
	}
	if cfg.Warnings.TreatAsErrors {
		t.Error("Expected TreatAsErrors=false")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected Port=8080, got %d", cfg.API.Port)
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
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default port, got %d", cfg.API.Port)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Output.Directory = "out"
	cfg.Output.KeepExpanded = false
	cfg.Warnings.TreatAsErrors = true
	cfg.API.Port = 9090

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Output.Directory != "out" {
		t.Errorf("Expected Directory=out, got %s", loaded.Output.Directory)
	}
	if loaded.Output.KeepExpanded {
		t.Error("Expected KeepExpanded=false")
	}
	if !loaded.Warnings.TreatAsErrors {
		t.Error("Expected TreatAsErrors=true")
	}
	if loaded.API.Port != 9090 {
		t.Errorf("Expected Port=9090, got %d", loaded.API.Port)
	}
}

func TestLoadFromInvalidFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bad.toml")
	if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected an error for invalid TOML")
	}
}
