package obslog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadClientConfigEmptyPathIsNoOp(t *testing.T) {
	cfg, err := LoadClientConfig("")
	if err != nil || cfg != nil {
		t.Fatalf("expected a no-op for an empty path, got %v, %v", cfg, err)
	}
}

func TestLoadClientConfigAppliesLogLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelWarn) })

	path := filepath.Join(t.TempDir(), "client_config.json")
	contents := `{"common": {"log_level": "DEBUG"}}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if cfg.Common.LogLevel == nil || *cfg.Common.LogLevel != "DEBUG" {
		t.Fatalf("unexpected parsed config: %+v", cfg.Common)
	}
	if got := Logger().GetLevel(); got != toLogrusLevel(LevelDebug) {
		t.Fatalf("expected the package level to be set to Debug, got %v", got)
	}
}

func TestLoadClientConfigRejectsUnknownLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_config.json")
	contents := `{"common": {"log_level": "VERBOSE"}}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadClientConfig(path); err == nil {
		t.Fatal("expected an error for an unrecognized log level")
	}
}

func TestLoadClientConfigRejectsMissingCommonSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadClientConfig(path); err == nil {
		t.Fatal("expected an error for a missing common section")
	}
}
