package organizing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"riptide/internal/accuraterip"
	"riptide/internal/config"
	"riptide/internal/queue"
	"riptide/internal/ripping"
	"riptide/internal/services/cdparanoia"
)

const ripLogName = "rip.log"

// WriteRipLog writes the plain-text rip report into dir. The report records
// the drive, offset, per-track extraction mode, checksums, and verification
// outcomes so a rip can be audited long after the staging files are gone.
func WriteRipLog(dir string, cfg *config.Config, meta queue.AlbumMetadata, result ripping.Result) (string, error) {
	path := filepath.Join(dir, ripLogName)
	if err := os.WriteFile(path, []byte(ripLogContent(cfg, meta, result)), 0o644); err != nil {
		return "", fmt.Errorf("write rip log: %w", err)
	}
	return path, nil
}

func ripLogContent(cfg *config.Config, meta queue.AlbumMetadata, result ripping.Result) string {
	var b strings.Builder
	b.WriteString("Riptide rip log\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Ripped at:     %s\n", result.RippedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Drive:         %s\n", cfg.Drive.Device)
	fmt.Fprintf(&b, "Sample offset: %+d\n", cfg.Drive.SampleOffset)
	fmt.Fprintf(&b, "Disc ID:       %s\n", result.DiscID)
	fmt.Fprintf(&b, "Registry:      %s\n", result.Registry)
	fmt.Fprintf(&b, "Encoding:      FLAC level %d\n", cfg.Encoding.CompressionLevel)

	b.WriteString("\nAlbum\n")
	fmt.Fprintf(&b, "  Artist: %s\n", meta.Artist)
	fmt.Fprintf(&b, "  Album:  %s\n", meta.Album)
	if year := strings.TrimSpace(meta.Year); year != "" {
		fmt.Fprintf(&b, "  Year:   %s\n", year)
	}
	if genre := strings.TrimSpace(meta.Genre); genre != "" {
		fmt.Fprintf(&b, "  Genre:  %s\n", genre)
	}

	b.WriteString("\nTracks\n")
	if result.HiddenTrack != nil {
		writeLogTrack(&b, *result.HiddenTrack)
	}
	var totalSamples uint64
	for _, track := range result.Tracks {
		writeLogTrack(&b, track)
		totalSamples += track.Samples
	}

	b.WriteString("\nSummary\n")
	fmt.Fprintf(&b, "  Total length: %s\n", sampleLength(totalSamples))
	if result.FullIntegrity {
		fmt.Fprintf(&b, "  Disc restarted in %s mode after a burst extraction failure\n", cdparanoia.ModeParanoia)
	}
	fmt.Fprintf(&b, "  %s\n", result.Summary())
	return b.String()
}

func writeLogTrack(b *strings.Builder, track ripping.TrackResult) {
	title := strings.TrimSpace(track.Title)
	if title == "" {
		title = fmt.Sprintf("Track %02d", track.Number)
	}
	fmt.Fprintf(b, "  %02d. %s  [%s]\n", track.Number, title, sampleLength(track.Samples))
	mode := track.Mode
	if track.ReRipped {
		mode += " (re-ripped)"
	}
	fmt.Fprintf(b, "      %s  v1=%s v2=%s  %s\n", mode, track.ChecksumV1, track.ChecksumV2, outcomeText(track))
}

func outcomeText(track ripping.TrackResult) string {
	switch track.Outcome {
	case ripping.OutcomeMatched:
		detail := fmt.Sprintf("confidence %d", track.Confidence)
		if match := strings.TrimSpace(track.Match); match != "" {
			detail = match + ", " + detail
		}
		return fmt.Sprintf("matched (%s)", detail)
	case ripping.OutcomeMismatch:
		return "MISMATCH"
	case ripping.OutcomeNoEntry:
		return "no registry entry"
	default:
		return "unverified"
	}
}

// sampleLength renders a stereo sample count as MM:SS:FF.
func sampleLength(samples uint64) string {
	return msf(int(samples / accuraterip.SectorSamples))
}
