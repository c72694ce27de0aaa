package organizing_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"riptide/internal/organizing"
	"riptide/internal/queue"
	"riptide/internal/ripping"
)

func albumMetadata() queue.AlbumMetadata {
	return queue.AlbumMetadata{
		Artist: "Miles Davis",
		Album:  "Kind of Blue",
		Year:   "1959",
		Genre:  "Jazz",
		Source: queue.MetadataSourceMusicBrainz,
		Tracks: []queue.TrackMetadata{
			{Number: 1, Title: "So What"},
			{Number: 2, Title: "Freddie Freeloader"},
			{Number: 3, Title: "Blue in Green", Artist: "Bill Evans"},
		},
	}
}

func albumResult(dir string) ripping.Result {
	return ripping.Result{
		DiscID:     "0015deb5-00b910bc-230bad03",
		TrackCount: 3,
		Registry:   ripping.RegistryFound,
		RippedAt:   time.Date(2026, 3, 14, 15, 9, 2, 0, time.UTC),
		Tracks: []ripping.TrackResult{
			{
				Number:     1,
				Title:      "So What",
				Path:       filepath.Join(dir, "01 - So What.flac"),
				Mode:       "burst",
				Samples:    588 * 75 * 60,
				ChecksumV1: "0DA2AA05",
				ChecksumV2: "046B0382",
				Outcome:    ripping.OutcomeMatched,
				Confidence: 7,
				Match:      "v2",
			},
			{
				Number:     2,
				Title:      "Freddie Freeloader",
				Path:       filepath.Join(dir, "02 - Freddie Freeloader.flac"),
				Mode:       "paranoia",
				Samples:    588 * 75 * 90,
				ChecksumV1: "1B2C3D4E",
				ChecksumV2: "5F607182",
				Outcome:    ripping.OutcomeMismatch,
				ReRipped:   true,
			},
			{
				Number:     3,
				Title:      "Blue in Green",
				Path:       filepath.Join(dir, "03 - Blue in Green.flac"),
				Mode:       "burst",
				Samples:    588 * (75*30 + 37),
				ChecksumV1: "00AA11BB",
				ChecksumV2: "22CC33DD",
				Outcome:    ripping.OutcomeNoEntry,
			},
		},
	}
}

func TestWriteCueSheet(t *testing.T) {
	dir := t.TempDir()
	meta := albumMetadata()
	result := albumResult(dir)

	path, err := organizing.WriteCueSheet(dir, meta, result)
	if err != nil {
		t.Fatalf("WriteCueSheet: %v", err)
	}
	if got, want := filepath.Base(path), "Kind of Blue.cue"; got != want {
		t.Fatalf("cue file name = %q, want %q", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cue sheet: %v", err)
	}
	want := strings.Join([]string{
		`REM GENRE "Jazz"`,
		`REM DATE "1959"`,
		`REM DISCID "0015deb5-00b910bc-230bad03"`,
		`REM COMMENT "Ripped with Riptide"`,
		`PERFORMER "Miles Davis"`,
		`TITLE "Kind of Blue"`,
		`FILE "01 - So What.flac" WAVE`,
		`  TRACK 01 AUDIO`,
		`    TITLE "So What"`,
		`    PERFORMER "Miles Davis"`,
		`    INDEX 01 00:00:00`,
		`FILE "02 - Freddie Freeloader.flac" WAVE`,
		`  TRACK 02 AUDIO`,
		`    TITLE "Freddie Freeloader"`,
		`    PERFORMER "Miles Davis"`,
		`    INDEX 01 00:00:00`,
		`FILE "03 - Blue in Green.flac" WAVE`,
		`  TRACK 03 AUDIO`,
		`    TITLE "Blue in Green"`,
		`    PERFORMER "Bill Evans"`,
		`    INDEX 01 00:00:00`,
	}, "\n") + "\n"
	if string(data) != want {
		t.Fatalf("cue content mismatch:\n--- got ---\n%s\n--- want ---\n%s", data, want)
	}
}

func TestWriteCueSheetHiddenTrack(t *testing.T) {
	dir := t.TempDir()
	meta := albumMetadata()
	result := albumResult(dir)
	result.HiddenTrack = &ripping.TrackResult{
		Number:  0,
		Title:   "Hidden Track",
		Path:    filepath.Join(dir, "00 - Hidden Track.flac"),
		Mode:    "burst",
		Samples: 588 * 75 * 12,
		Outcome: ripping.OutcomeUnverified,
	}

	path, err := organizing.WriteCueSheet(dir, meta, result)
	if err != nil {
		t.Fatalf("WriteCueSheet: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cue sheet: %v", err)
	}
	content := string(data)

	htoa := strings.Join([]string{
		`FILE "00 - Hidden Track.flac" WAVE`,
		`  TRACK 00 AUDIO`,
		`    TITLE "Hidden Track"`,
		`    PERFORMER "Miles Davis"`,
		`    INDEX 01 00:00:00`,
	}, "\n")
	if !strings.Contains(content, htoa) {
		t.Fatalf("cue sheet missing hidden track block:\n%s", content)
	}
	if strings.Index(content, "TRACK 00 AUDIO") > strings.Index(content, "TRACK 01 AUDIO") {
		t.Fatal("hidden track should precede track one")
	}
}

func TestWriteCueSheetQuotingAndFallbacks(t *testing.T) {
	dir := t.TempDir()
	meta := queue.AlbumMetadata{
		Artist: `The "Best" Band`,
		Album:  `Live / Unreleased`,
	}
	result := ripping.Result{
		DiscID:     "00000001-00000002-03000003",
		TrackCount: 1,
		Registry:   ripping.RegistryDisabled,
		Tracks: []ripping.TrackResult{
			{Number: 1, Path: filepath.Join(dir, "01 - Track 01.flac"), Mode: "burst", Outcome: ripping.OutcomeUnverified},
		},
	}

	path, err := organizing.WriteCueSheet(dir, meta, result)
	if err != nil {
		t.Fatalf("WriteCueSheet: %v", err)
	}
	if got, want := filepath.Base(path), "Live - Unreleased.cue"; got != want {
		t.Fatalf("cue file name = %q, want %q", got, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cue sheet: %v", err)
	}
	content := string(data)

	if strings.Contains(content, "REM GENRE") || strings.Contains(content, "REM DATE") {
		t.Fatalf("empty genre/date should be omitted:\n%s", content)
	}
	if !strings.Contains(content, `PERFORMER "The 'Best' Band"`) {
		t.Fatalf("embedded quotes should become apostrophes:\n%s", content)
	}
	if !strings.Contains(content, `    TITLE "Track 01"`) {
		t.Fatalf("missing track title fallback:\n%s", content)
	}
}
