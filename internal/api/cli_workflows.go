package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"riptide/internal/accuraterip"
	"riptide/internal/config"
	"riptide/internal/logging"
	"riptide/internal/musicbrainz"
	"riptide/internal/queue"
	"riptide/internal/services/cdparanoia"
	"riptide/internal/toc"
)

// ProbeDiscRequest configures an ad-hoc disc identification pass that runs
// without touching the queue. The CLI uses it for `riptide disc id`.
type ProbeDiscRequest struct {
	Config *config.Config
	Logger *slog.Logger
	// Device overrides the configured drive when set.
	Device string
	// LookupMetadata queries the metadata service for the album release.
	LookupMetadata bool
	// LookupRegistry queries the verification registry for stored checksums.
	LookupRegistry bool
}

// ProbeDiscResult reports the identifier triple and optional lookups for the
// disc currently in the drive.
type ProbeDiscResult struct {
	Device        string   `json:"device"`
	TrackCount    int      `json:"trackCount"`
	DiscID        string   `json:"discId"`
	Fingerprint   string   `json:"fingerprint"`
	RecordPath    string   `json:"recordPath"`
	LeadOutSector int      `json:"leadOutSector"`
	TotalSectors  int      `json:"totalSectors"`
	HiddenTrack   bool     `json:"hiddenTrack"`
	Artist        string   `json:"artist,omitempty"`
	Album         string   `json:"album,omitempty"`
	Year          string   `json:"year,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	RegistryState string   `json:"registryState,omitempty"`
	RegistryCount int      `json:"registryCount,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ProbeDisc reads the disc TOC, derives the identifier triple and
// fingerprint, and optionally resolves metadata and registry records.
func ProbeDisc(ctx context.Context, req ProbeDiscRequest) (ProbeDiscResult, error) {
	cfg := req.Config
	if cfg == nil {
		return ProbeDiscResult{}, errors.New("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	device := strings.TrimSpace(req.Device)
	if device == "" {
		device = cfg.Drive.Device
	}

	reader, err := cdparanoia.New(cfg.CdparanoiaBinary(), device, cfg.Drive.SampleOffset, cdparanoia.Timeouts{
		TOC:       cfg.Drive.TOCTimeout,
		KillGrace: cfg.Ripping.KillGraceSeconds,
	})
	if err != nil {
		return ProbeDiscResult{}, fmt.Errorf("initialize toc reader: %w", err)
	}

	disc, err := reader.ReadTOC(ctx)
	if err != nil {
		return ProbeDiscResult{}, fmt.Errorf("read table of contents: %w", err)
	}
	disc, err = toc.Validate(disc)
	if err != nil {
		return ProbeDiscResult{}, fmt.Errorf("validate table of contents: %w", err)
	}

	offsets, leadOut := disc.Offsets()
	id := accuraterip.CalculateDiscID(offsets, leadOut)
	info := queue.NewDiscInfo(device, disc, id)

	result := ProbeDiscResult{
		Device:        device,
		TrackCount:    disc.TrackCount(),
		DiscID:        id.String(),
		Fingerprint:   info.Fingerprint(),
		RecordPath:    id.RecordPath(),
		LeadOutSector: disc.LeadOutSector,
		TotalSectors:  disc.TotalSectors,
	}
	if len(disc.Tracks) > 0 && disc.Tracks[0].HasHiddenLeadIn {
		result.HiddenTrack = true
	}

	if req.LookupMetadata {
		probeMetadata(ctx, cfg, logger, id.String(), disc.TrackCount(), &result)
	}
	if req.LookupRegistry {
		probeRegistry(ctx, cfg, logger, id, &result)
	}
	return result, nil
}

func probeMetadata(ctx context.Context, cfg *config.Config, logger *slog.Logger, discID string, trackCount int, result *ProbeDiscResult) {
	if !cfg.Metadata.Enabled {
		result.Warnings = append(result.Warnings, "metadata lookups are disabled in configuration")
		return
	}
	client, err := musicbrainz.New(cfg.Metadata.BaseURL, cfg.Metadata.UserAgent, time.Duration(cfg.Metadata.RequestTimeout)*time.Second)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("metadata client unavailable: %v", err))
		return
	}
	release, err := client.LookupDiscID(ctx, discID, trackCount)
	if err != nil {
		if errors.Is(err, musicbrainz.ErrReleaseNotFound) {
			result.Warnings = append(result.Warnings, "no release found for this disc id")
			return
		}
		logger.Warn("metadata lookup failed", logging.Error(err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("metadata lookup failed: %v", err))
		return
	}
	result.Artist = release.Artist
	result.Album = release.Title
	result.Year = release.Date
	result.Genre = release.Genre
}

func probeRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger, id accuraterip.DiscID, result *ProbeDiscResult) {
	if !cfg.Verification.Enabled {
		result.RegistryState = "disabled"
		return
	}
	client := accuraterip.NewClient(cfg.Verification.RegistryURL, accuraterip.WithUserAgent(cfg.Metadata.UserAgent))
	records, err := client.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, accuraterip.ErrDiscNotFound) {
			result.RegistryState = "missing"
			return
		}
		logger.Warn("registry lookup failed", logging.Error(err))
		result.RegistryState = "unreachable"
		result.Warnings = append(result.Warnings, fmt.Sprintf("registry lookup failed: %v", err))
		return
	}
	result.RegistryState = "found"
	result.RegistryCount = len(records)
}
