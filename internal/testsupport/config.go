package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bvdump/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, creates the directories, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheRoot = filepath.Join(base, "cache")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "journal.db")

	for _, dir := range []string{
		cfgVal.Paths.CacheRoot,
		cfgVal.Paths.OutputDir,
		cfgVal.Paths.StagingDir,
		cfgVal.Paths.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAutoremove enables source removal after a successful conversion.
func WithAutoremove() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.AutoremoveSource = true
	}
}

// WithNoOverwrite disables overwriting existing outputs.
func WithNoOverwrite() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.OverwriteExisting = false
	}
}

// WithTitleNaming names outputs after the display title instead of the id.
func WithTitleNaming() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.TitleInFilename = true
	}
}

// WithVerifyDisabled turns off ffprobe output verification.
func WithVerifyDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.VerifyOutput = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
