package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bvdump/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
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
	if cfg.Paths.CacheRoot != filepath.Join(tempHome, "Movies", "bilibili") {
		t.Fatalf("unexpected cache root: %q", cfg.Paths.CacheRoot)
	}
	if cfg.Paths.JournalPath != filepath.Join(tempHome, ".local", "share", "bvdump", "journal.db") {
		t.Fatalf("unexpected journal path: %q", cfg.Paths.JournalPath)
	}
	if cfg.Conversion.OutputContainer != "mp4" {
		t.Fatalf("unexpected container: %q", cfg.Conversion.OutputContainer)
	}
	if !cfg.Conversion.OverwriteExisting {
		t.Fatal("expected overwrite enabled by default")
	}
	if cfg.Conversion.AutoremoveSource {
		t.Fatal("expected autoremove disabled by default")
	}
	if cfg.Conversion.VideoCodecPriority[0] != "avc1" {
		t.Fatalf("unexpected video priority: %v", cfg.Conversion.VideoCodecPriority)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.Tools.FFmpeg)
	}
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "bvdump.toml")
	body := strings.Join([]string{
		"[paths]",
		`cache_root = "~/cache"`,
		`output_dir = "~/out"`,
		"[conversion]",
		`video_codec_priority = ["hev1"]`,
		"fail_on_unsupported = true",
		"[logging]",
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.CacheRoot != filepath.Join(tempHome, "cache") {
		t.Fatalf("cache root not expanded: %q", cfg.Paths.CacheRoot)
	}
	if len(cfg.Conversion.VideoCodecPriority) != 1 || cfg.Conversion.VideoCodecPriority[0] != "hev1" {
		t.Fatalf("unexpected video priority: %v", cfg.Conversion.VideoCodecPriority)
	}
	if !cfg.Conversion.FailOnUnsupported {
		t.Fatal("expected fail_on_unsupported true")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsUnknownContainer(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "bad.toml")
	if err := os.WriteFile(path, []byte("[conversion]\noutput_container = \"avi\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported container")
	}
}

func TestValidateRejectsMalformedForbiddenPair(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "bad.toml")
	if err := os.WriteFile(path, []byte("[conversion]\nforbidden_pairs = [\"av01\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for malformed forbidden pair")
	}
}

func TestWriteSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "cfg", "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Conversion.OutputContainer != "mp4" {
		t.Fatalf("sample container = %q", cfg.Conversion.OutputContainer)
	}
}
