package config

const (
	defaultCacheRoot   = "~/Movies/bilibili"
	defaultOutputDir   = "~/Movies/output"
	defaultStagingDir  = "~/.local/share/bvdump/staging"
	defaultLogDir      = "~/.local/share/bvdump/logs"
	defaultJournalPath = "~/.local/share/bvdump/journal.db"
	defaultContainer   = "mp4"
	defaultFFmpeg      = "ffmpeg"
	defaultFFprobe     = "ffprobe"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheRoot:   defaultCacheRoot,
			OutputDir:   defaultOutputDir,
			StagingDir:  defaultStagingDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Conversion: Conversion{
			OutputContainer:    defaultContainer,
			VideoCodecPriority: []string{"avc1", "hev1", "hvc1", "av01"},
			AudioCodecPriority: []string{"mp4a", "ec-3", "fLaC"},
			OverwriteExisting:  true,
			VerifyOutput:       true,
			CopyArtwork:        true,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
