package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"riptide/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "riptide", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.LibraryDir != filepath.Join(tempHome, "Music") {
		t.Fatalf("unexpected library dir: %q", cfg.Paths.LibraryDir)
	}
	if cfg.Drive.Device != "/dev/sr0" {
		t.Fatalf("unexpected device: %q", cfg.Drive.Device)
	}
	if !cfg.Verification.Enabled {
		t.Fatal("expected verification enabled by default")
	}
	if cfg.Verification.RequireBoth {
		t.Fatal("expected require_both off by default")
	}
	if cfg.Encoding.CompressionLevel != 8 {
		t.Fatalf("unexpected compression level: %d", cfg.Encoding.CompressionLevel)
	}
	if cfg.Ripping.LastTrackBurstAttempts != 2 {
		t.Fatalf("unexpected last-track attempts: %d", cfg.Ripping.LastTrackBurstAttempts)
	}
	if cfg.Workflow.HeartbeatTimeout <= cfg.Workflow.HeartbeatInterval {
		t.Fatal("default heartbeat timeout must exceed interval")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LibraryDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "riptide.toml")

	type payload struct {
		Drive struct {
			Device       string `toml:"device"`
			SampleOffset int    `toml:"sample_offset"`
		} `toml:"drive"`
		Verification struct {
			RegistryURL string `toml:"registry_url"`
			RequireBoth bool   `toml:"require_both"`
		} `toml:"verification"`
		Ripping struct {
			BurstTimeout int `toml:"burst_timeout"`
		} `toml:"ripping"`
	}
	custom := payload{}
	custom.Drive.Device = "/dev/sr1"
	custom.Drive.SampleOffset = 6
	custom.Verification.RegistryURL = "http://registry.example.com/base/"
	custom.Verification.RequireBoth = true
	custom.Ripping.BurstTimeout = 120
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Drive.Device != "/dev/sr1" {
		t.Fatalf("expected device from file, got %q", cfg.Drive.Device)
	}
	if cfg.Drive.SampleOffset != 6 {
		t.Fatalf("expected sample offset 6, got %d", cfg.Drive.SampleOffset)
	}
	if cfg.Verification.RegistryURL != "http://registry.example.com/base" {
		t.Fatalf("expected trimmed registry url, got %q", cfg.Verification.RegistryURL)
	}
	if !cfg.Verification.RequireBoth {
		t.Fatal("expected require_both from file")
	}
	if cfg.Ripping.BurstTimeout != 120 {
		t.Fatalf("expected burst timeout 120, got %d", cfg.Ripping.BurstTimeout)
	}
	if cfg.Ripping.ParanoiaTimeout != config.Default().Ripping.ParanoiaTimeout {
		t.Fatalf("expected default paranoia timeout, got %d", cfg.Ripping.ParanoiaTimeout)
	}
}

func TestNtfyTopicEnvFallback(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("RIPTIDE_NTFY_TOPIC", "env-topic")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[verification]") {
		t.Fatalf("sample config missing verification section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Drive.Device != "/dev/sr0" {
		t.Fatalf("expected sample to carry default device, got %q", cfg.Drive.Device)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Ripping.BurstTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive burst timeout")
	}

	cfg = config.Default()
	cfg.Workflow.HeartbeatInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for heartbeat interval")
	}

	cfg = config.Default()
	cfg.Workflow.HeartbeatTimeout = cfg.Workflow.HeartbeatInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when timeout <= interval")
	}

	cfg = config.Default()
	cfg.Encoding.CompressionLevel = 9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range compression level")
	}

	cfg = config.Default()
	cfg.Drive.Device = "sr0"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative device path")
	}

	cfg = config.Default()
	cfg.Verification.RegistryURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty registry url while enabled")
	}

	cfg = config.Default()
	cfg.Verification.Enabled = false
	cfg.Verification.RegistryURL = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled verification to skip registry checks, got %v", err)
	}
}
