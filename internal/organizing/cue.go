package organizing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"riptide/internal/queue"
	"riptide/internal/ripping"
	"riptide/internal/textutil"
)

// WriteCueSheet renders a cue sheet describing the final track layout and
// writes it into dir as "<Album>.cue". Each track references its own FLAC
// file, so every INDEX 01 sits at the start of its file; a hidden lead-in
// appears as TRACK 00 ahead of track one.
func WriteCueSheet(dir string, meta queue.AlbumMetadata, result ripping.Result) (string, error) {
	name := textutil.SanitizeFileName(meta.Album)
	if name == "" {
		name = "album"
	}
	path := filepath.Join(dir, name+".cue")
	if err := os.WriteFile(path, []byte(cueContent(meta, result)), 0o644); err != nil {
		return "", fmt.Errorf("write cue sheet: %w", err)
	}
	return path, nil
}

func cueContent(meta queue.AlbumMetadata, result ripping.Result) string {
	var b strings.Builder
	if genre := strings.TrimSpace(meta.Genre); genre != "" {
		fmt.Fprintf(&b, "REM GENRE %s\n", cueField(genre))
	}
	if year := strings.TrimSpace(meta.Year); year != "" {
		fmt.Fprintf(&b, "REM DATE %s\n", cueField(year))
	}
	if result.DiscID != "" {
		fmt.Fprintf(&b, "REM DISCID %s\n", cueField(result.DiscID))
	}
	fmt.Fprintf(&b, "REM COMMENT %s\n", cueField("Ripped with Riptide"))
	fmt.Fprintf(&b, "PERFORMER %s\n", cueField(meta.Artist))
	fmt.Fprintf(&b, "TITLE %s\n", cueField(meta.Album))

	if hidden := result.HiddenTrack; hidden != nil {
		writeCueTrack(&b, *hidden, trackPerformer(meta, 0))
	}
	for _, track := range result.Tracks {
		writeCueTrack(&b, track, trackPerformer(meta, track.Number))
	}
	return b.String()
}

func writeCueTrack(b *strings.Builder, track ripping.TrackResult, performer string) {
	title := strings.TrimSpace(track.Title)
	if title == "" {
		title = fmt.Sprintf("Track %02d", track.Number)
	}
	fmt.Fprintf(b, "FILE %s WAVE\n", cueField(filepath.Base(track.Path)))
	fmt.Fprintf(b, "  TRACK %02d AUDIO\n", track.Number)
	fmt.Fprintf(b, "    TITLE %s\n", cueField(title))
	fmt.Fprintf(b, "    PERFORMER %s\n", cueField(performer))
	fmt.Fprintf(b, "    INDEX 01 %s\n", msf(0))
}

func trackPerformer(meta queue.AlbumMetadata, number int) string {
	if number > 0 {
		return meta.TrackArtist(number)
	}
	return meta.Artist
}

// cueField quotes a cue sheet value. The format has no escape convention,
// so embedded double quotes become apostrophes.
func cueField(value string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(value), `"`, `'`) + `"`
}

// msf renders a sector count as MM:SS:FF at 75 frames per second.
func msf(sectors int) string {
	if sectors < 0 {
		sectors = 0
	}
	minutes := sectors / (75 * 60)
	seconds := (sectors % (75 * 60)) / 75
	frames := sectors % 75
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, frames)
}
