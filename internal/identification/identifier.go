package identification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"riptide/internal/accuraterip"
	"riptide/internal/config"
	"riptide/internal/logging"
	"riptide/internal/musicbrainz"
	"riptide/internal/notifications"
	"riptide/internal/queue"
	"riptide/internal/services"
	"riptide/internal/services/cdparanoia"
	"riptide/internal/stage"
	"riptide/internal/toc"
)

// Identifier performs disc identification: one TOC query, identifier
// derivation, and concurrent metadata plus registry prefetch.
type Identifier struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	toc      cdparanoia.TOCReader
	metadata musicbrainz.Searcher
	registry accuraterip.Lookuper
	notifier notifications.Service
}

// NewIdentifier creates the stage handler with production dependencies.
func NewIdentifier(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Identifier {
	var tocReader cdparanoia.TOCReader
	client, err := cdparanoia.New(cfg.CdparanoiaBinary(), cfg.Drive.Device, cfg.Drive.SampleOffset, cdparanoia.Timeouts{
		TOC:       cfg.Drive.TOCTimeout,
		KillGrace: cfg.Ripping.KillGraceSeconds,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("toc reader initialization failed", logging.Error(err))
		}
	} else {
		tocReader = client
	}

	var searcher musicbrainz.Searcher
	if cfg.Metadata.Enabled {
		mbClient, err := musicbrainz.New(cfg.Metadata.BaseURL, cfg.Metadata.UserAgent, time.Duration(cfg.Metadata.RequestTimeout)*time.Second)
		if err != nil {
			if logger != nil {
				logger.Warn("metadata client initialization failed", logging.Error(err))
			}
		} else {
			searcher = mbClient
		}
	}

	var registry accuraterip.Lookuper
	if cfg.Verification.Enabled {
		registry = accuraterip.NewClient(cfg.Verification.RegistryURL, accuraterip.WithUserAgent(cfg.Metadata.UserAgent))
	}

	return NewIdentifierWithDependencies(cfg, store, logger, tocReader, searcher, registry, notifications.NewService(cfg))
}

// NewIdentifierWithDependencies allows injecting collaborators (used in tests).
func NewIdentifierWithDependencies(
	cfg *config.Config,
	store *queue.Store,
	logger *slog.Logger,
	tocReader cdparanoia.TOCReader,
	searcher musicbrainz.Searcher,
	registry accuraterip.Lookuper,
	notifier notifications.Service,
) *Identifier {
	return &Identifier{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "identifier"),
		toc:      tocReader,
		metadata: searcher,
		registry: registry,
		notifier: notifier,
	}
}

// SetLogger routes stage logs through the workflow-provided item logger.
func (i *Identifier) SetLogger(logger *slog.Logger) {
	if logger != nil {
		i.logger = logger
	}
}

// Prepare initializes progress messaging prior to Execute.
func (i *Identifier) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, i.logger)
	item.InitProgress("Identifying", "Reading disc")

	displayTitle := strings.TrimSpace(item.DiscTitle)
	if displayTitle == "" {
		displayTitle = "Unknown Disc"
	}
	logger.Info(
		"starting disc identification",
		logging.String("disc_title", displayTitle),
		logging.String(logging.FieldDevice, i.device(item)),
	)

	if i.notifier != nil {
		if err := i.notifier.Publish(ctx, notifications.EventDiscDetected, notifications.Payload{
			"discTitle": displayTitle,
		}); err != nil {
			logger.Warn("disc detected notification failed", logging.Error(err))
		}
	}
	return nil
}

// Execute reads and validates the TOC, derives the disc identifier triple,
// and fetches album metadata and the registry record set concurrently.
// Metadata and registry failures degrade; only drive and TOC problems fail
// the stage.
func (i *Identifier) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, i.logger)

	if i.toc == nil {
		return services.Wrap(
			services.ErrConfiguration, "identification", "initialize toc reader",
			"TOC reader unavailable; install cd-paranoia and ensure it is in PATH", nil)
	}
	device := i.device(item)
	if device == "" {
		return services.Wrap(
			services.ErrConfiguration, "identification", "resolve device",
			"Optical drive path not configured; set drive.device in the riptide config", nil)
	}

	item.SetProgress("Identifying", "Reading table of contents", 5)
	if err := i.store.UpdateProgress(ctx, item); err != nil {
		logger.Warn("progress update failed", logging.Error(err))
	}

	disc, err := i.toc.ReadTOC(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "identification", "read toc", "Reading the table of contents failed", err)
	}
	disc, err = toc.Validate(disc)
	if err != nil {
		return services.Wrap(services.ErrValidation, "identification", "validate toc", "Disc table of contents failed validation", err)
	}

	offsets, leadOut := disc.Offsets()
	discID := accuraterip.CalculateDiscID(offsets, leadOut)
	info := queue.NewDiscInfo(device, disc, discID)
	logger.Info(
		"table of contents read",
		logging.Int("track_count", disc.TrackCount()),
		logging.Int("lead_out_sector", disc.LeadOutSector),
		logging.String(logging.FieldDiscID, discID.String()),
	)

	item.DiscFingerprint = info.Fingerprint()
	if err := i.flagDuplicateFingerprint(ctx, item); err != nil {
		return err
	}

	item.SetProgress("Identifying", "Fetching metadata", 40)
	if err := i.store.UpdateProgress(ctx, item); err != nil {
		logger.Warn("progress update failed", logging.Error(err))
	}

	meta, records := i.fetchEnrichment(ctx, logger, item.DiscTitle, discID, disc.TrackCount())
	if len(records) > 0 {
		info.SetRegistryRecords(encodeRecords(records))
		logger.Info(
			"registry records prefetched",
			logging.Int("pressings", len(records)),
			logging.String(logging.FieldDiscID, discID.String()),
		)
	}

	encodedInfo, err := info.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "identification", "encode disc info", "Failed to encode disc descriptor", err)
	}
	item.DiscInfoJSON = encodedInfo

	encodedMeta, err := meta.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "identification", "encode metadata", "Failed to encode album metadata", err)
	}
	item.MetadataJSON = encodedMeta

	displayTitle := meta.DisplayTitle()
	item.DiscTitle = displayTitle
	item.SetProgressComplete("Identified", fmt.Sprintf("Identified as %s", displayTitle))

	logger.Info(
		"disc identified",
		logging.String("album", meta.Album),
		logging.String("artist", meta.Artist),
		logging.String("metadata_source", meta.Source),
		logging.Int("track_count", disc.TrackCount()),
	)
	if i.notifier != nil {
		if err := i.notifier.Publish(ctx, notifications.EventIdentificationCompleted, notifications.Payload{
			"title":      displayTitle,
			"trackCount": disc.TrackCount(),
		}); err != nil {
			logger.Warn("identification notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies identifier dependencies required for successful execution.
func (i *Identifier) HealthCheck(ctx context.Context) stage.Health {
	const name = "identifier"
	if i.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(i.cfg.Drive.Device) == "" {
		return stage.Unhealthy(name, "drive device not configured")
	}
	if i.toc == nil {
		return stage.Unhealthy(name, "toc reader unavailable")
	}
	return stage.Healthy(name)
}

func (i *Identifier) device(item *queue.Item) string {
	if item != nil {
		if device := strings.TrimSpace(item.DevicePath); device != "" {
			return device
		}
	}
	if i.cfg == nil {
		return ""
	}
	return strings.TrimSpace(i.cfg.Drive.Device)
}

// fetchEnrichment runs the metadata lookup and registry prefetch
// concurrently. Neither result is load-bearing: metadata degrades to
// placeholder tags and a missed prefetch makes the rip stage fetch later.
func (i *Identifier) fetchEnrichment(
	ctx context.Context,
	logger *slog.Logger,
	discTitle string,
	discID accuraterip.DiscID,
	trackCount int,
) (queue.AlbumMetadata, []accuraterip.Record) {
	meta := queue.NewFallbackMetadata(deriveAlbumTitle(discTitle), trackCount)
	var records []accuraterip.Record

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if i.metadata == nil {
			return nil
		}
		release, err := i.metadata.LookupDiscID(groupCtx, discID.String(), trackCount)
		if err != nil {
			if errors.Is(err, musicbrainz.ErrReleaseNotFound) {
				logger.Debug("no metadata release matched disc id", logging.String(logging.FieldDiscID, discID.String()))
			} else {
				logger.Warn("metadata lookup failed; using placeholder tags",
					logging.Error(err),
					logging.String(logging.FieldEventType, "metadata_lookup_failed"),
					logging.String(logging.FieldImpact, "tracks will be tagged Track NN"),
				)
			}
			return nil
		}
		meta = metadataFromRelease(release)
		return nil
	})
	group.Go(func() error {
		if i.registry == nil {
			return nil
		}
		found, err := i.registry.Lookup(groupCtx, discID)
		if err != nil {
			if errors.Is(err, accuraterip.ErrDiscNotFound) {
				logger.Debug("disc not in verification registry", logging.String(logging.FieldDiscID, discID.String()))
			} else {
				logger.Warn("registry prefetch failed; rip stage will retry",
					logging.Error(err),
					logging.String(logging.FieldEventType, "registry_prefetch_failed"),
				)
			}
			return nil
		}
		records = found
		return nil
	})
	_ = group.Wait()

	return meta, records
}

func (i *Identifier) flagDuplicateFingerprint(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, i.logger)
	found, err := i.store.FindByFingerprint(ctx, item.DiscFingerprint)
	if err != nil {
		return services.Wrap(services.ErrTransient, "identification", "lookup fingerprint", "Failed to query existing disc fingerprint", err)
	}
	if found != nil && found.ID != item.ID {
		logger.Info(
			"duplicate disc fingerprint detected",
			logging.Int64("existing_item_id", found.ID),
			logging.String("fingerprint", item.DiscFingerprint),
		)
		item.NeedsReview = true
		item.ReviewReason = fmt.Sprintf("Duplicate of item #%d", found.ID)
	}
	return nil
}

func metadataFromRelease(release *musicbrainz.Release) queue.AlbumMetadata {
	meta := queue.AlbumMetadata{
		Artist: release.Artist,
		Album:  release.Title,
		Year:   release.Date,
		Genre:  release.Genre,
		Source: queue.MetadataSourceMusicBrainz,
	}
	for _, track := range release.Tracks {
		stored := queue.TrackMetadata{
			Number: track.Position,
			Title:  track.Title,
		}
		if !strings.EqualFold(strings.TrimSpace(track.Artist), strings.TrimSpace(release.Artist)) {
			stored.Artist = track.Artist
		}
		meta.Tracks = append(meta.Tracks, stored)
	}
	return meta
}

// encodeRecords re-serializes parsed registry records for caching on the
// disc descriptor.
func encodeRecords(records []accuraterip.Record) []byte {
	var raw []byte
	for _, record := range records {
		raw = accuraterip.AppendRecord(raw, record)
	}
	return raw
}

// deriveAlbumTitle cleans a disc label for use as a placeholder album title.
// Separator runs collapse to single spaces and the result is title-cased.
func deriveAlbumTitle(label string) string {
	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, "Unknown Disc") {
		return "Unknown Album"
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range label {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Album"
	}
	if strings.ToUpper(title) == title || strings.ToLower(title) == title {
		title = cases.Title(language.Und).String(strings.ToLower(title))
	}
	return title
}
