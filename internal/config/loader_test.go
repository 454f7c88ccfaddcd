package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// clearVtrackEnvVars clears all VTRACK_ environment variables for the test.
func clearVtrackEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			name, _, _ := strings.Cut(env, "=")
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v != viper.GetViper() {
		t.Error("NewLoader should use the global viper instance")
	}
}

func TestLoadWithNoConfigFile(t *testing.T) {
	clearVtrackEnvVars(t)
	t.Chdir(t.TempDir())

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("expected default log level %q, got %q", infoLevel, cfg.LogLevel)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("expected default metrics addr, got %q", cfg.Metrics.Addr)
	}
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	clearVtrackEnvVars(t)
	configFile := filepath.Join(t.TempDir(), "vtrack.yaml")

	yamlContent := `
log_level: debug
verbose: true
tracker:
  max_iterations: 20
  bandwidth: 0.15
segment:
  otsu: false
  threshold: 90
  include_border_region: false
matcher:
  overlap_metric: iou
  overlap_threshold: 0.4
output:
  format: text
  overlay_dir: /tmp/overlays
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	if cfg.LogLevel != "debug" || !cfg.Verbose {
		t.Errorf("global settings not loaded: %q %v", cfg.LogLevel, cfg.Verbose)
	}
	if cfg.Tracker.MaxIterations != 20 || cfg.Tracker.Bandwidth != 0.15 {
		t.Errorf("tracker settings not loaded: %+v", cfg.Tracker)
	}
	if cfg.Segment.Otsu || cfg.Segment.Threshold != 90 || cfg.Segment.IncludeBorderRegion {
		t.Errorf("segment settings not loaded: %+v", cfg.Segment)
	}
	if cfg.Matcher.OverlapMetric != "iou" || cfg.Matcher.OverlapThreshold != 0.4 {
		t.Errorf("matcher settings not loaded: %+v", cfg.Matcher)
	}
	if cfg.Output.Format != "text" || cfg.Output.OverlayDir != "/tmp/overlays" {
		t.Errorf("output settings not loaded: %+v", cfg.Output)
	}
	// Unset keys keep their defaults.
	if cfg.Segment.OpenKernel != 3 {
		t.Errorf("expected default open kernel 3, got %d", cfg.Segment.OpenKernel)
	}
}

func TestLoadFromSearchPath(t *testing.T) {
	clearVtrackEnvVars(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "vtrack.yaml"), []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := newTestLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level from ./vtrack.yaml, got %q", cfg.LogLevel)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), "vtrack.yaml") {
		t.Errorf("unexpected config file used: %q", loader.GetConfigFileUsed())
	}
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "vtrack.yaml")
	if err := os.WriteFile(configFile, []byte("tracker: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := newTestLoader().LoadWithFile(configFile); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("expected missing file error, got %v", err)
	}
}

func TestLoadWithValidationFailure(t *testing.T) {
	clearVtrackEnvVars(t)
	configFile := filepath.Join(t.TempDir(), "vtrack.yaml")
	if err := os.WriteFile(configFile, []byte("segment:\n  open_kernel: 4\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := newTestLoader().LoadWithFile(configFile)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("expected validation error, got %v", err)
	}

	cfg, err := newTestLoader().LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Segment.OpenKernel != 4 {
		t.Errorf("expected raw value 4, got %d", cfg.Segment.OpenKernel)
	}
}

func TestEnvironmentVariableOverride(t *testing.T) {
	clearVtrackEnvVars(t)
	t.Chdir(t.TempDir())
	t.Setenv("VTRACK_LOG_LEVEL", "error")
	t.Setenv("VTRACK_TRACKER_MAX_ITERATIONS", "42")
	t.Setenv("VTRACK_MATCHER_OVERLAP_METRIC", "iou")

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected log level from env, got %q", cfg.LogLevel)
	}
	if cfg.Tracker.MaxIterations != 42 {
		t.Errorf("expected iterations from env, got %d", cfg.Tracker.MaxIterations)
	}
	if cfg.Matcher.OverlapMetric != "iou" {
		t.Errorf("expected metric from env, got %q", cfg.Matcher.OverlapMetric)
	}
}

func TestGetSet(t *testing.T) {
	loader := newTestLoader()
	loader.Set("output.file", "out.json")
	if loader.GetString("output.file") != "out.json" {
		t.Errorf("expected out.json, got %q", loader.GetString("output.file"))
	}
	if loader.Get("output.file") != "out.json" {
		t.Error("Get should return the set value")
	}
	if loader.GetViper() == nil {
		t.Error("GetViper returned nil")
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	clearVtrackEnvVars(t)
	configFile := filepath.Join(t.TempDir(), "vtrack.yaml")
	if err := GenerateDefaultConfigFile(configFile); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("generated file should load: %v", err)
	}
	if cfg.Segment.DilateIterations != 5 {
		t.Errorf("expected default dilate iterations, got %d", cfg.Segment.DilateIterations)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("expected current directory first, got %q", paths[0])
	}
	want := map[string]bool{filepath.Join("/xdg", "vtrack"): false, "/etc/vtrack": false}
	for _, p := range paths {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("expected %q in search paths %v", p, paths)
		}
	}
}
