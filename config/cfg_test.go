package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rupor-github/gencfg"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
untangle:
  source_extension: ".scss"
  search_root: "./src"
  exclude_directories: ["vendor", "tmp"]
  concurrency: 4
  cache_size: 32
  preprocessor: "sassc"
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}

	if cfg.Untangle.SourceExtension != ".scss" {
		t.Errorf("SourceExtension = %q, want .scss", cfg.Untangle.SourceExtension)
	}

	if cfg.Untangle.SearchRoot != "src" {
		t.Errorf("SearchRoot = %q, want src (sanitized)", cfg.Untangle.SearchRoot)
	}

	if cfg.Untangle.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Untangle.Concurrency)
	}

	if len(cfg.Untangle.ExcludeDirectories) != 2 {
		t.Errorf("ExcludeDirectories = %v, want 2 entries", cfg.Untangle.ExcludeDirectories)
	}

	if cfg.Untangle.Preprocessor != "sassc" {
		t.Errorf("Preprocessor = %q, want sassc", cfg.Untangle.Preprocessor)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `version: 1
untangle:
  concurrency: 4
  invalid indent
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unknown.yaml")

	configWithUnknown := `version: 1
unknown_field: value
untangle:
  concurrency: 4
`

	if err := os.WriteFile(configPath, []byte(configWithUnknown), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for unknown fields")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad version", "version: 2\n"},
		{"bad concurrency", "version: 1\nuntangle:\n  concurrency: 1000\n"},
		{"bad extension", "version: 1\nuntangle:\n  source_extension: less\n"},
		{"negative cache", "version: 1\nuntangle:\n  cache_size: -1\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(configPath, []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}

	// Verify it's valid YAML by trying to unmarshal
	cfg := &Config{}
	_, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Untangle: UntangleConfig{
			SourceExtension:    ".less",
			SearchRoot:         ".",
			ExcludeDirectories: []string{".git"},
			Concurrency:        10,
			CacheSize:          256,
			Preprocessor:       "lessc",
		},
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Dump() returned empty data")
	}

	// Verify we can load it back
	cfg2 := &Config{}
	_, err = unmarshalConfig(data, cfg2, false)
	if err != nil {
		t.Errorf("Dumped config cannot be loaded: %v", err)
	}

	if cfg2.Version != cfg.Version {
		t.Errorf("Version mismatch after dump/load: got %d, want %d", cfg2.Version, cfg.Version)
	}
	if cfg2.Untangle.SourceExtension != cfg.Untangle.SourceExtension {
		t.Errorf("SourceExtension mismatch after dump/load: got %q, want %q", cfg2.Untangle.SourceExtension, cfg.Untangle.SourceExtension)
	}
}

func TestUnmarshalConfig(t *testing.T) {
	t.Run("valid config without processing", func(t *testing.T) {
		data := []byte(`version: 1`)
		cfg := &Config{}

		result, err := unmarshalConfig(data, cfg, false)
		if err != nil {
			t.Errorf("unmarshalConfig() error = %v", err)
		}

		if result == nil {
			t.Fatal("unmarshalConfig() returned nil")
		}

		if result.Version != 1 {
			t.Errorf("Version = %d, want 1", result.Version)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		data := []byte(`invalid: [yaml`)
		cfg := &Config{}

		_, err := unmarshalConfig(data, cfg, false)
		if err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Untangle.SourceExtension != ".less" {
		t.Errorf("SourceExtension = %q, want .less", cfg.Untangle.SourceExtension)
	}
	if cfg.Untangle.Concurrency < 1 || cfg.Untangle.Concurrency > 64 {
		t.Errorf("Concurrency = %d, out of valid range", cfg.Untangle.Concurrency)
	}
	if cfg.Untangle.CacheSize < 0 {
		t.Error("CacheSize should not be negative")
	}
	if len(cfg.Untangle.ExcludeDirectories) == 0 {
		t.Error("ExcludeDirectories should have defaults")
	}
	if cfg.Untangle.Preprocessor == "" {
		t.Error("Preprocessor should have a default")
	}
}

func TestLoadConfiguration_MergeWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.yaml")

	// Partial config that only overrides some values
	partialConfig := `version: 1
untangle:
  concurrency: 2
`

	if err := os.WriteFile(configPath, []byte(partialConfig), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	// Check that explicitly set value is used
	if cfg.Untangle.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2 from config file", cfg.Untangle.Concurrency)
	}

	// Check that default values are still present for unspecified fields
	if cfg.Untangle.SourceExtension != ".less" {
		t.Errorf("SourceExtension = %q, want default .less", cfg.Untangle.SourceExtension)
	}
	if cfg.Reporting.Destination == "" {
		t.Error("Reporting destination should have a default")
	}
}
