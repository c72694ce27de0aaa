package organizing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"riptide/internal/config"
	"riptide/internal/fileutil"
	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/queue"
	"riptide/internal/ripping"
	"riptide/internal/services"
	"riptide/internal/stage"
	"riptide/internal/textutil"
)

// Finalizer moves ripped albums from staging into the library.
type Finalizer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewFinalizer constructs the finalizing handler using default dependencies.
func NewFinalizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Finalizer {
	return NewFinalizerWithDependencies(cfg, store, logger, notifications.NewService(cfg))
}

// NewFinalizerWithDependencies allows injecting collaborators (used in tests).
func NewFinalizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Finalizer {
	return &Finalizer{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "finalizer"),
		notifier: notifier,
	}
}

// SetLogger routes stage logs through the workflow-provided item logger.
func (f *Finalizer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// Prepare primes progress messaging before Execute.
func (f *Finalizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	item.InitProgress("Finalizing", "Preparing library move")
	logger.Info("starting finalize", logging.String("disc_title", strings.TrimSpace(item.DiscTitle)))
	return nil
}

// Execute assembles the album directory in the library: every encoded track
// is moved out of staging, the cue sheet and rip log are written next to
// them, the rip result is re-persisted with final paths, and the staging
// tree is removed.
func (f *Finalizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)

	if strings.TrimSpace(item.RipResultJSON) == "" {
		return services.Wrap(
			services.ErrValidation, "finalizing", "load rip result",
			"No rip result present; run ripping before finalizing", nil)
	}
	result, err := ripping.ResultFromJSON(item.RipResultJSON)
	if err != nil {
		return services.Wrap(
			services.ErrValidation, "finalizing", "decode rip result",
			"Rip result is unreadable; re-rip the disc", err)
	}
	if len(result.Tracks) == 0 {
		return services.Wrap(
			services.ErrValidation, "finalizing", "inspect rip result",
			"Rip result lists no tracks; re-rip the disc", nil)
	}

	libraryDir := strings.TrimSpace(f.cfg.Paths.LibraryDir)
	if libraryDir == "" {
		return services.Wrap(
			services.ErrConfiguration, "finalizing", "resolve library",
			"Library directory not configured; set paths.library_dir in the riptide config", nil)
	}

	meta := queue.MetadataFromJSON(item.MetadataJSON, item.DiscTitle)
	albumDir := filepath.Join(libraryDir, AlbumDirName(meta))
	if err := os.MkdirAll(albumDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration, "finalizing", "create album dir",
			"Failed to create album directory; check library_dir permissions", err)
	}
	if item.NeedsReview {
		logger.Info("item flagged for review; finalizing anyway",
			logging.String("reason", strings.TrimSpace(item.ReviewReason)))
	}

	f.updateProgress(ctx, item, "Moving tracks into library", 20)
	if result.HiddenTrack != nil {
		if err := f.placeTrack(ctx, logger, result.HiddenTrack, albumDir); err != nil {
			return err
		}
	}
	for i := range result.Tracks {
		if err := f.placeTrack(ctx, logger, &result.Tracks[i], albumDir); err != nil {
			return err
		}
	}
	logger.Info("library move completed",
		logging.Int("track_count", len(result.Tracks)),
		logging.String("album_dir", albumDir),
	)

	f.updateProgress(ctx, item, "Writing cue sheet and rip log", 70)
	cuePath, err := WriteCueSheet(albumDir, meta, result)
	if err != nil {
		return services.Wrap(
			services.ErrTransient, "finalizing", "write cue sheet",
			"Failed to write cue sheet", err)
	}
	logPath, err := WriteRipLog(albumDir, f.cfg, meta, result)
	if err != nil {
		return services.Wrap(
			services.ErrTransient, "finalizing", "write rip log",
			"Failed to write rip log", err)
	}
	logger.Debug("album reports written",
		logging.String("cue_sheet", cuePath),
		logging.String("rip_log", logPath),
	)

	if err := queue.PersistRipResult(ctx, f.store, item, result); err != nil {
		return services.Wrap(
			services.ErrTransient, "finalizing", "persist rip result",
			"Failed to persist final track paths", err)
	}

	f.updateProgress(ctx, item, "Cleaning staging", 90)
	f.cleanupStaging(ctx, item)

	item.FinalPath = albumDir
	item.SetProgressComplete("Completed", fmt.Sprintf("Available in library: %s", filepath.Base(albumDir)))
	logger.Info("finalize completed",
		logging.String("final_path", albumDir),
		logging.String("summary", result.Summary()),
	)

	if f.notifier != nil {
		if err := f.notifier.Publish(ctx, notifications.EventProcessingCompleted, notifications.Payload{
			"title":     meta.DisplayTitle(),
			"finalPath": albumDir,
		}); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

// placeTrack moves one encoded track into the album directory and rewrites
// its result path. A track already at its destination is left alone so a
// finalize retry does not fail on work it finished earlier.
func (f *Finalizer) placeTrack(ctx context.Context, logger *slog.Logger, track *ripping.TrackResult, albumDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := track.Path
	dst := filepath.Join(albumDir, filepath.Base(src))
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if _, dstErr := os.Stat(dst); dstErr == nil {
				logger.Debug("track already in library", logging.String("path", dst))
				track.Path = dst
				return nil
			}
		}
		return services.Wrap(
			services.ErrValidation, "finalizing", "locate staged track",
			fmt.Sprintf("Staged track %02d is missing; re-rip the disc", track.Number), err)
	}
	if err := f.moveFile(logger, src, dst); err != nil {
		return services.Wrap(
			services.ErrTransient, "finalizing", "move track",
			fmt.Sprintf("Failed to move track %02d into the library", track.Number), err)
	}
	track.Path = dst
	return nil
}

// moveFile renames src to dst, falling back to a verified copy when the
// library lives on a different filesystem.
func (f *Finalizer) moveFile(logger *slog.Logger, src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		logger.Warn("failed to remove staged track after copy", logging.Error(err))
	}
	return nil
}

func (f *Finalizer) cleanupStaging(ctx context.Context, item *queue.Item) {
	logger := logging.WithContext(ctx, f.logger)
	base := strings.TrimSpace(f.cfg.Paths.StagingDir)
	if base == "" {
		return
	}
	root := strings.TrimSpace(item.StagingRoot(base))
	if root == "" {
		return
	}
	if err := os.RemoveAll(root); err != nil {
		logger.Warn("failed to clean staging directory; leftover files remain",
			logging.Error(err),
			logging.String("staging_root", root),
			logging.String(logging.FieldImpact, "disk space not reclaimed; manual cleanup needed"),
		)
		return
	}
	logger.Debug("cleaned staging directory", logging.String("staging_root", root))
}

func (f *Finalizer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, f.logger)
	copy := *item
	copy.SetProgress(copy.ProgressStage, message, percent)
	if err := f.store.UpdateProgress(ctx, &copy); err != nil {
		logger.Warn("failed to persist finalize progress", logging.Error(err))
		return
	}
	*item = copy
}

// HealthCheck verifies the library directory is configured and reachable.
func (f *Finalizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "finalizer"
	if f.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(f.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	return stage.Healthy(name)
}

// AlbumDirName renders the library directory name for a release:
// "Artist - Album (Year)", sanitized for the filesystem.
func AlbumDirName(meta queue.AlbumMetadata) string {
	artist := strings.TrimSpace(meta.Artist)
	if artist == "" {
		artist = "Unknown Artist"
	}
	album := strings.TrimSpace(meta.Album)
	if album == "" {
		album = "Unknown Album"
	}
	name := artist + " - " + album
	if year := strings.TrimSpace(meta.Year); year != "" {
		name = fmt.Sprintf("%s (%s)", name, year)
	}
	if sanitized := textutil.SanitizeFileName(name); sanitized != "" {
		return sanitized
	}
	return "Unknown Album"
}
