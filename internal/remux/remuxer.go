package remux

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bvdump/internal/logging"
	"bvdump/internal/services"
)

// Request describes the inputs for one remux operation. The video and audio
// paths point at assembled elementary streams; DestPath is the final output
// location.
type Request struct {
	VideoPath  string
	AudioPath  string
	VideoCodec string
	AudioCodec string
	DestPath   string
}

// Result reports the outcome of a remux.
type Result struct {
	OutputPath string
	SizeBytes  int64
}

type commandRunner func(ctx context.Context, name string, args ...string) error

type probeFunc func(ctx context.Context, binary, path string) (ProbeReport, error)

// Remuxer splices assembled elementary streams into one output container by
// delegating the sample-level work to ffmpeg's stream copy.
type Remuxer struct {
	logger    *slog.Logger
	container string
	ffmpeg    string
	ffprobe   string
	verify    bool
	run       commandRunner
	probe     probeFunc
}

// Options configures a Remuxer.
type Options struct {
	Container string
	FFmpeg    string
	FFprobe   string
	Verify    bool
}

// New constructs a remuxer.
func New(logger *slog.Logger, opts Options) *Remuxer {
	container := strings.ToLower(strings.TrimSpace(opts.Container))
	if container == "" {
		container = "mp4"
	}
	ffmpeg := strings.TrimSpace(opts.FFmpeg)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Remuxer{
		logger:    logging.NewComponentLogger(logger, "remuxer"),
		container: container,
		ffmpeg:    ffmpeg,
		ffprobe:   strings.TrimSpace(opts.FFprobe),
		verify:    opts.Verify,
		run:       defaultCommandRunner,
		probe:     Inspect,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Remuxer) WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) {
	if r != nil && run != nil {
		r.run = run
	}
}

// WithProbe allows injecting a custom output prober for tests.
func (r *Remuxer) WithProbe(probe func(ctx context.Context, binary, path string) (ProbeReport, error)) {
	if r != nil && probe != nil {
		r.probe = probe
	}
}

// Container returns the output container type this remuxer produces.
func (r *Remuxer) Container() string {
	return r.container
}

// Remux combines the two assembled streams into one container file.
// The operation is atomic: output is written to a temporary file in the
// destination directory and renamed into place only after it validates, so
// an aborted run never leaves a file at the destination name.
func (r *Remuxer) Remux(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.VideoPath) == "" || strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, fmt.Errorf("remux requires both stream paths")
	}
	if strings.TrimSpace(req.DestPath) == "" {
		return Result{}, fmt.Errorf("remux requires a destination path")
	}
	for _, path := range []string{req.VideoPath, req.AudioPath} {
		if _, err := os.Stat(path); err != nil {
			return Result{}, fmt.Errorf("assembled stream not found: %w", err)
		}
	}

	if err := CheckCompatibility(r.container, req.VideoCodec, req.AudioCodec); err != nil {
		return Result{}, err
	}

	dir := filepath.Dir(req.DestPath)
	base := filepath.Base(req.DestPath)
	tmpPath := filepath.Join(dir, ".remux-"+base+".tmp")

	args := r.buildFFmpegArgs(req, tmpPath)
	r.logger.Debug("executing ffmpeg",
		logging.String("video", req.VideoPath),
		logging.String("audio", req.AudioPath),
		logging.String("dest", req.DestPath),
	)

	if err := r.run(ctx, r.ffmpeg, args...); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, services.Wrap(services.ErrMuxIncompatible, "remuxer", "splice streams",
			fmt.Sprintf("ffmpeg rejected %s+%s", req.VideoCodec, req.AudioCodec), err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return Result{}, fmt.Errorf("ffmpeg did not produce output file: %w", err)
	}

	if r.verify {
		if err := r.verifyOutput(ctx, tmpPath); err != nil {
			_ = os.Remove(tmpPath)
			return Result{}, err
		}
	}

	if err := os.Rename(tmpPath, req.DestPath); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, fmt.Errorf("finalize output: %w", err)
	}

	r.logger.Info("container written",
		logging.String("output", req.DestPath),
		logging.Int64("bytes", info.Size()),
	)
	return Result{OutputPath: req.DestPath, SizeBytes: info.Size()}, nil
}

// buildFFmpegArgs constructs the stream-copy invocation. Sample data is
// copied byte-for-byte; only container structure and the seek index are
// rebuilt.
func (r *Remuxer) buildFFmpegArgs(req Request, outputPath string) []string {
	return []string{
		"-v", "error",
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-c", "copy",
		"-movflags", "+faststart",
		"-f", r.container,
		outputPath,
	}
}

func (r *Remuxer) verifyOutput(ctx context.Context, path string) error {
	report, err := r.probe(ctx, r.ffprobe, path)
	if err != nil {
		return services.Wrap(services.ErrMuxIncompatible, "remuxer", "verify output", path, err)
	}
	if report.VideoStreams != 1 || report.AudioStreams != 1 {
		return services.Wrap(services.ErrMuxIncompatible, "remuxer", "verify output",
			fmt.Sprintf("%s holds %d video and %d audio streams", path, report.VideoStreams, report.AudioStreams), nil)
	}
	if report.DurationSeconds <= 0 {
		return services.Wrap(services.ErrMuxIncompatible, "remuxer", "verify output",
			fmt.Sprintf("%s reports no playable duration", path), nil)
	}
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
