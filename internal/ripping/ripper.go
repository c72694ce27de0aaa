package ripping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"riptide/internal/accuraterip"
	"riptide/internal/config"
	"riptide/internal/disc"
	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/queue"
	"riptide/internal/services"
	"riptide/internal/services/cdparanoia"
	"riptide/internal/services/flacenc"
	"riptide/internal/stage"
)

// Ripper manages the extraction and verification stage for queued discs.
type Ripper struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	extractor cdparanoia.Extractor
	encoder   flacenc.Encoder
	registry  accuraterip.Lookuper
	ejector   disc.Ejector
	notifier  notifications.Service
}

// NewRipper constructs the ripping handler using default dependencies.
func NewRipper(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Ripper {
	var extractor cdparanoia.Extractor
	client, err := cdparanoia.New(cfg.CdparanoiaBinary(), cfg.Drive.Device, cfg.Drive.SampleOffset, cdparanoia.Timeouts{
		Burst:     cfg.Ripping.BurstTimeout,
		Paranoia:  cfg.Ripping.ParanoiaTimeout,
		KillGrace: cfg.Ripping.KillGraceSeconds,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("cd-paranoia client unavailable", logging.Error(err))
		}
	} else {
		extractor = client
	}

	var encoder flacenc.Encoder
	flacClient, err := flacenc.New(cfg.FlacBinary(), cfg.Encoding.CompressionLevel, cfg.Encoding.ValidateOutput)
	if err != nil {
		if logger != nil {
			logger.Warn("flac encoder unavailable", logging.Error(err))
		}
	} else {
		encoder = flacClient
	}

	var registry accuraterip.Lookuper
	if cfg.Verification.Enabled {
		registry = accuraterip.NewClient(cfg.Verification.RegistryURL, accuraterip.WithUserAgent(cfg.Metadata.UserAgent))
	}

	return NewRipperWithDependencies(cfg, store, logger, extractor, encoder, registry, disc.NewEjectorWithBinary(cfg.EjectBinary()), notifications.NewService(cfg))
}

// NewRipperWithDependencies allows injecting all collaborators (used in tests).
func NewRipperWithDependencies(
	cfg *config.Config,
	store *queue.Store,
	logger *slog.Logger,
	extractor cdparanoia.Extractor,
	encoder flacenc.Encoder,
	registry accuraterip.Lookuper,
	ejector disc.Ejector,
	notifier notifications.Service,
) *Ripper {
	return &Ripper{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "ripper"),
		extractor: extractor,
		encoder:   encoder,
		registry:  registry,
		ejector:   ejector,
		notifier:  notifier,
	}
}

// SetLogger routes stage logs through the workflow-provided item logger.
func (r *Ripper) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Prepare primes progress messaging before Execute.
func (r *Ripper) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	item.InitProgress("Ripping", "Starting rip")
	logger.Info("starting rip", logging.String("disc_title", strings.TrimSpace(item.DiscTitle)))
	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, notifications.EventRipStarted, notifications.Payload{
			"discTitle": item.DiscTitle,
		}); err != nil {
			logger.Warn("rip start notification failed", logging.Error(err))
		}
	}
	return nil
}

// Execute rips the disc described by the item: burst extraction, registry
// verification, and selective paranoia remediation, with the session result
// persisted for the finalizing stage.
func (r *Ripper) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)

	if r.extractor == nil {
		return services.Wrap(
			services.ErrConfiguration, "ripping", "initialize extractor",
			"cd-paranoia unavailable; install it and ensure it is in PATH", nil)
	}
	if r.encoder == nil {
		return services.Wrap(
			services.ErrConfiguration, "ripping", "initialize encoder",
			"flac unavailable; install it and ensure it is in PATH", nil)
	}

	info, err := stage.ParseDiscInfo(item.DiscInfoJSON)
	if err != nil {
		return err
	}
	discLayout := info.Disc()
	if discLayout.TrackCount() == 0 {
		return services.Wrap(
			services.ErrValidation, "ripping", "inspect disc",
			"Disc descriptor lists no audio tracks", nil)
	}

	stagingRoot := item.StagingRoot(r.cfg.Paths.StagingDir)
	if stagingRoot == "" {
		return services.Wrap(
			services.ErrConfiguration, "ripping", "resolve staging",
			"Staging directory not configured; set paths.staging_dir in the riptide config", nil)
	}
	wavDir := filepath.Join(stagingRoot, "wav")
	flacDir := filepath.Join(stagingRoot, "flac")
	for _, dir := range []string{wavDir, flacDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(
				services.ErrConfiguration, "ripping", "create staging dirs",
				"Failed to create staging directories; set paths.staging_dir to a writable location", err)
		}
	}
	item.StagingPath = stagingRoot

	meta := queue.MetadataFromJSON(item.MetadataJSON, item.DiscTitle)
	records, registryState := r.registryRecords(ctx, logger, info)
	logger.Info(
		"rip session starting",
		logging.Int("track_count", discLayout.TrackCount()),
		logging.String(logging.FieldDiscID, info.DiscID().String()),
		logging.String("registry", registryState),
		logging.Int("pressings", len(records)),
	)

	sess := newSession(r, item, discLayout, meta, info.DiscID(), records, registryState, wavDir, flacDir, logger)
	result, err := sess.run(ctx)
	if err != nil {
		return err
	}

	if err := queue.PersistRipResult(ctx, r.store, item, result); err != nil {
		return services.Wrap(services.ErrTransient, "ripping", "persist rip result", "Failed to persist rip result", err)
	}
	item.SetProgressComplete("Ripped", result.Summary())
	logger.Info(
		"rip completed",
		logging.Int("track_count", result.TrackCount),
		logging.Int("verified_tracks", result.Verified()),
		logging.Int("mismatched_tracks", result.Mismatched()),
		logging.String("registry", result.Registry),
		logging.Bool("full_integrity", result.FullIntegrity),
	)

	if r.ejector != nil && r.cfg.Drive.EjectOnComplete {
		device := r.device(item)
		logger.Info("ejecting disc", logging.String(logging.FieldDevice, device))
		if err := r.ejector.Eject(ctx, device); err != nil {
			logger.Warn("disc eject failed", logging.Error(err))
		}
	}
	r.notifyCompletion(ctx, logger, item, result)
	return nil
}

// HealthCheck verifies extraction and encoding dependencies.
func (r *Ripper) HealthCheck(ctx context.Context) stage.Health {
	const name = "ripper"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(r.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if strings.TrimSpace(r.cfg.Drive.Device) == "" {
		return stage.Unhealthy(name, "drive device not configured")
	}
	if r.extractor == nil {
		return stage.Unhealthy(name, "cd-paranoia client unavailable")
	}
	if r.encoder == nil {
		return stage.Unhealthy(name, "flac encoder unavailable")
	}
	for _, binary := range []string{r.cfg.CdparanoiaBinary(), r.cfg.FlacBinary()} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Healthy(name)
}

// registryRecords resolves the record set for the disc. Identification
// usually caches the records on the disc descriptor; a cache miss falls back
// to a live fetch. Registry trouble degrades to an unverified rip rather
// than failing the stage.
func (r *Ripper) registryRecords(ctx context.Context, logger *slog.Logger, info queue.DiscInfo) ([]accuraterip.Record, string) {
	if r.cfg == nil || !r.cfg.Verification.Enabled {
		return nil, RegistryDisabled
	}
	if records, ok := info.RegistryRecords(); ok && len(records) > 0 {
		logger.Debug("using cached registry records", logging.Int("pressings", len(records)))
		return records, RegistryFound
	}
	if r.registry == nil {
		return nil, RegistryUnreachable
	}
	records, err := r.registry.Lookup(ctx, info.DiscID())
	if err != nil {
		if errors.Is(err, accuraterip.ErrDiscNotFound) {
			logger.Info("disc not present in verification registry", logging.String(logging.FieldDiscID, info.DiscID().String()))
			return nil, RegistryMissing
		}
		logger.Warn(
			"registry lookup failed; rip will be unverified",
			logging.Error(err),
			logging.String(logging.FieldImpact, "track checksums cannot be cross-checked"),
		)
		return nil, RegistryUnreachable
	}
	if len(records) == 0 {
		return nil, RegistryMissing
	}
	return records, RegistryFound
}

func (r *Ripper) notifyCompletion(ctx context.Context, logger *slog.Logger, item *queue.Item, result *Result) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Publish(ctx, notifications.EventRipCompleted, notifications.Payload{
		"discTitle": item.DiscTitle,
		"verified":  result.Verified(),
		"total":     result.TrackCount,
	}); err != nil {
		logger.Warn("rip completion notification failed", logging.Error(err))
	}
	if result.Registry != RegistryFound {
		return
	}
	if err := r.notifier.Publish(ctx, notifications.EventVerificationCompleted, notifications.Payload{
		"title":    item.DiscTitle,
		"verified": result.Verified(),
		"total":    result.TrackCount,
	}); err != nil {
		logger.Warn("verification notification failed", logging.Error(err))
	}
}

// applyProgress persists a progress snapshot without clobbering unrelated
// item fields; the item is only updated after the store accepts the write.
func (r *Ripper) applyProgress(ctx context.Context, item *queue.Item, stageName, message string, percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	copy := *item
	copy.SetProgress(stageName, message, percent)
	if r.store != nil {
		if err := r.store.UpdateProgress(ctx, &copy); err != nil {
			logging.WithContext(ctx, r.logger).Warn("failed to persist progress", logging.Error(err))
			return
		}
	}
	*item = copy
}

func (r *Ripper) device(item *queue.Item) string {
	if item != nil {
		if device := strings.TrimSpace(item.DevicePath); device != "" {
			return device
		}
	}
	if r.cfg == nil {
		return ""
	}
	return strings.TrimSpace(r.cfg.Drive.Device)
}
