package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bvdump/internal/cache"
	"bvdump/internal/config"
	"bvdump/internal/fileutil"
	"bvdump/internal/fragment"
	"bvdump/internal/journal"
	"bvdump/internal/logging"
	"bvdump/internal/metadata"
	"bvdump/internal/preflight"
	"bvdump/internal/remux"
	"bvdump/internal/selector"
	"bvdump/internal/services"
	"bvdump/internal/textutil"
)

// Result summarizes one conversion attempt.
type Result struct {
	TitleID     string
	Title       string
	OutputPath  string
	OutputBytes int64
	Elapsed     time.Duration
	Skipped     bool
	SkipReason  string
}

// Converter drives a cached title through scan, selection, assembly, and
// remux into a playable container.
type Converter struct {
	cfg     *config.Config
	logger  *slog.Logger
	remuxer *remux.Remuxer
	store   *journal.Store
}

// New builds a converter for the given config. store may be nil when run
// history is not wanted.
func New(cfg *config.Config, logger *slog.Logger, store *journal.Store) *Converter {
	if logger == nil {
		logger = logging.NewNop()
	}
	remuxer := remux.New(logger, remux.Options{
		Container: cfg.Conversion.OutputContainer,
		FFmpeg:    cfg.Tools.FFmpeg,
		FFprobe:   cfg.Tools.FFprobe,
		Verify:    cfg.Conversion.VerifyOutput,
	})
	return &Converter{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "converter"),
		remuxer: remuxer,
		store:   store,
	}
}

// Remuxer exposes the underlying remuxer so callers can inject alternate
// command runners in tests.
func (c *Converter) Remuxer() *remux.Remuxer {
	return c.remuxer
}

// Convert processes a single cached title and writes the final container
// into the configured output directory.
func (c *Converter) Convert(ctx context.Context, titleID string) (Result, error) {
	start := time.Now()
	ctx = services.WithTitleID(ctx, titleID)
	log := c.logger.With(logging.String(logging.FieldTitleID, titleID))

	layout, err := cache.Scan(c.cfg.Paths.CacheRoot, titleID)
	if err != nil {
		return Result{TitleID: titleID}, err
	}

	doc, err := metadata.Read(layout.MetadataPath, metadata.Options{
		FailOnUnsupported: c.cfg.Conversion.FailOnUnsupported,
	})
	if err != nil {
		return Result{TitleID: titleID}, err
	}
	for _, skipped := range doc.Skipped {
		log.Warn("skipping unsupported variant",
			logging.String("codec", skipped.Variant.Codec),
			logging.String("reason", skipped.Reason))
	}

	pair, err := selector.Select(doc, selector.Policy{
		VideoCodecPriority: c.cfg.Conversion.VideoCodecPriority,
		AudioCodecPriority: c.cfg.Conversion.AudioCodecPriority,
		ForbiddenPairs:     c.cfg.Conversion.ForbiddenPairs,
	})
	if err != nil {
		return Result{TitleID: titleID, Title: doc.Title.Title}, err
	}
	log.Info("selected stream pair",
		logging.String("video_codec", pair.Video.Codec),
		logging.Int("video_quality", pair.Video.Quality),
		logging.String("audio_codec", pair.Audio.Codec))

	required := pair.Video.TotalSize + pair.Audio.TotalSize
	if failure := preflight.FirstFailure(preflight.RunAll(c.cfg, required)); failure != nil {
		return Result{TitleID: titleID, Title: doc.Title.Title},
			fmt.Errorf("preflight %s: %s", failure.Name, failure.Detail)
	}

	destPath := filepath.Join(c.cfg.Paths.OutputDir,
		c.outputBaseName(titleID, doc)+"."+c.cfg.Conversion.OutputContainer)

	lockPath := destPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{TitleID: titleID, Title: doc.Title.Title},
			services.Wrap(services.ErrDestinationBusy, "converter", "acquire destination lock", lockPath, err)
	}
	if !locked {
		return Result{TitleID: titleID, Title: doc.Title.Title},
			services.Wrap(services.ErrDestinationBusy, "converter", "acquire destination lock",
				fmt.Sprintf("%s is held by another run", lockPath), nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	if reason, skip := c.shouldSkip(ctx, titleID, destPath); skip {
		log.Info("skipping title", logging.String("reason", reason))
		result := Result{
			TitleID:    titleID,
			Title:      doc.Title.Title,
			OutputPath: destPath,
			Elapsed:    time.Since(start),
			Skipped:    true,
			SkipReason: reason,
		}
		c.journalOutcome(ctx, layout, doc, result, nil)
		return result, nil
	}

	result, err := c.produce(ctx, log, layout, doc, pair, destPath)
	result.TitleID = titleID
	result.Title = doc.Title.Title
	result.Elapsed = time.Since(start)
	c.journalOutcome(ctx, layout, doc, result, err)
	if err != nil {
		return result, err
	}

	if c.cfg.Conversion.AutoremoveSource {
		if removeErr := os.RemoveAll(layout.Entry.Root); removeErr != nil {
			log.Warn("failed to remove source cache entry",
				logging.String("path", layout.Entry.Root),
				logging.Error(removeErr))
		} else {
			log.Info("removed source cache entry", logging.String("path", layout.Entry.Root))
		}
	}

	log.Info("conversion complete",
		logging.String("output", result.OutputPath),
		logging.Int64("bytes", result.OutputBytes),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (c *Converter) produce(
	ctx context.Context,
	log *slog.Logger,
	layout cache.Layout,
	doc metadata.Document,
	pair selector.Pair,
	destPath string,
) (Result, error) {
	workDir := filepath.Join(c.cfg.Paths.StagingDir, "work-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("failed to clean work directory",
				logging.String("path", workDir), logging.Error(err))
		}
	}()

	videoPath, err := c.assembleStream(layout, pair.Video, workDir, "video")
	if err != nil {
		return Result{}, err
	}
	audioPath, err := c.assembleStream(layout, pair.Audio, workDir, "audio")
	if err != nil {
		return Result{}, err
	}

	muxed, err := c.remuxer.Remux(ctx, remux.Request{
		VideoPath:  videoPath,
		AudioPath:  audioPath,
		VideoCodec: pair.Video.Codec,
		AudioCodec: pair.Audio.Codec,
		DestPath:   destPath,
	})
	if err != nil {
		return Result{}, err
	}

	c.copySidecars(log, layout, doc, destPath)

	return Result{OutputPath: muxed.OutputPath, OutputBytes: muxed.SizeBytes}, nil
}

func (c *Converter) assembleStream(
	layout cache.Layout,
	variant metadata.StreamVariant,
	workDir, name string,
) (string, error) {
	dir, ok := layout.VariantDir(variant.Dir)
	if !ok {
		return "", services.Wrap(services.ErrMalformedMetadata, "converter", "resolve variant directory",
			fmt.Sprintf("metadata references directory %q which is not present in the cache entry", variant.Dir), nil)
	}
	stream, err := fragment.Assemble(dir, variant)
	if err != nil {
		return "", err
	}
	path := filepath.Join(workDir, name+".m4s")
	if _, err := stream.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// outputBaseName names the output file. The title id is the default; when
// title naming is enabled the sanitized display title is used instead, with
// the id as fallback for titles that sanitize to nothing.
func (c *Converter) outputBaseName(titleID string, doc metadata.Document) string {
	if !c.cfg.Conversion.TitleInFilename {
		return titleID
	}
	name := textutil.SanitizeFileName(textutil.DisplayTitle(doc.Title.Title))
	if name == "" {
		return titleID
	}
	return name
}

// shouldSkip applies the overwrite and skip-converted policies. It never
// skips when overwriting is allowed and the title has no completed record.
func (c *Converter) shouldSkip(ctx context.Context, titleID, destPath string) (string, bool) {
	_, statErr := os.Stat(destPath)
	outputExists := statErr == nil

	if outputExists && !c.cfg.Conversion.OverwriteExisting {
		return "output exists and overwriting is disabled", true
	}
	if c.cfg.Conversion.SkipConverted && c.store != nil {
		record, err := c.store.LastCompleted(ctx, titleID)
		if err == nil && record != nil && outputExists {
			return "already converted on " + record.CreatedAt.Format("2006-01-02"), true
		}
	}
	return "", false
}

// copySidecars copies the cover art and a metadata sidecar next to the
// output. Failures are logged and never fail the conversion.
func (c *Converter) copySidecars(log *slog.Logger, layout cache.Layout, doc metadata.Document, destPath string) {
	base := strings.TrimSuffix(destPath, filepath.Ext(destPath))

	infoDst := base + ".info.json"
	if err := fileutil.CopyFileVerified(layout.MetadataPath, infoDst); err != nil {
		log.Warn("failed to copy metadata sidecar", logging.Error(err))
	}

	if !c.cfg.Conversion.CopyArtwork {
		return
	}
	c.copyCover(log, layout, doc.Title.CoverPath, base, "")
	if doc.Title.GroupCoverPath != doc.Title.CoverPath {
		c.copyCover(log, layout, doc.Title.GroupCoverPath, base, "-group")
	}
}

// copyCover copies one artwork file next to the output. Covers are
// decoration, so the plain copy is enough; only the metadata snapshot gets
// the verified variant.
func (c *Converter) copyCover(log *slog.Logger, layout cache.Layout, coverPath, base, suffix string) {
	if coverPath == "" {
		return
	}
	src := coverPath
	if !filepath.IsAbs(src) {
		src = filepath.Join(layout.Entry.Root, src)
	}
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".jpg"
	}
	if err := fileutil.CopyFile(src, base+suffix+ext); err != nil {
		log.Warn("failed to copy cover art",
			logging.String("path", src), logging.Error(err))
	}
}

func (c *Converter) journalOutcome(ctx context.Context, layout cache.Layout, doc metadata.Document, result Result, convErr error) {
	if c.store == nil {
		return
	}
	record := &journal.Record{
		TitleID:     result.TitleID,
		Title:       doc.Title.Title,
		SourcePath:  layout.Entry.Root,
		OutputPath:  result.OutputPath,
		OutputBytes: result.OutputBytes,
		Duration:    result.Elapsed,
		Status:      journal.StatusCompleted,
	}
	if record.TitleID == "" {
		record.TitleID = layout.Entry.TitleID
	}
	switch {
	case convErr != nil:
		record.Status = journal.StatusFailed
		record.Error = convErr.Error()
	case result.Skipped:
		record.Status = journal.StatusSkipped
		record.Error = result.SkipReason
	}
	if err := c.store.Append(ctx, record); err != nil {
		c.logger.Warn("failed to journal conversion outcome", logging.Error(err))
	}
}

// Outcome pairs a batch entry with its error, if any.
type Outcome struct {
	Result Result
	Err    error
}

// ConvertAll processes every title under the cache root in lexical order.
// A failing title does not stop the batch.
func (c *Converter) ConvertAll(ctx context.Context) ([]Outcome, error) {
	titleIDs, err := cache.ListTitles(c.cfg.Paths.CacheRoot)
	if err != nil {
		return nil, err
	}
	if len(titleIDs) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "converter", "list titles",
			fmt.Sprintf("no cached titles under %s", c.cfg.Paths.CacheRoot), nil)
	}

	outcomes := make([]Outcome, 0, len(titleIDs))
	failed := 0
	for _, titleID := range titleIDs {
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
		result, convErr := c.Convert(ctx, titleID)
		if convErr != nil {
			failed++
			c.logger.Error("title conversion failed",
				logging.String(logging.FieldTitleID, titleID),
				logging.Error(convErr))
		}
		outcomes = append(outcomes, Outcome{Result: result, Err: convErr})
	}
	if failed > 0 {
		return outcomes, fmt.Errorf("%d of %d titles failed", failed, len(titleIDs))
	}
	return outcomes, nil
}
