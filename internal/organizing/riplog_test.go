package organizing_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"riptide/internal/organizing"
	"riptide/internal/ripping"
	"riptide/internal/testsupport"
)

func TestWriteRipLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Drive.Device = "/dev/sr1"
	cfg.Drive.SampleOffset = 6
	cfg.Encoding.CompressionLevel = 8

	dir := t.TempDir()
	meta := albumMetadata()
	result := albumResult(dir)

	path, err := organizing.WriteRipLog(dir, cfg, meta, result)
	if err != nil {
		t.Fatalf("WriteRipLog: %v", err)
	}
	if got, want := filepath.Base(path), "rip.log"; got != want {
		t.Fatalf("rip log name = %q, want %q", got, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rip log: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"Riptide rip log",
		"Ripped at:     2026-03-14 15:09:02",
		"Drive:         /dev/sr1",
		"Sample offset: +6",
		"Disc ID:       0015deb5-00b910bc-230bad03",
		"Registry:      found",
		"Encoding:      FLAC level 8",
		"Artist: Miles Davis",
		"Album:  Kind of Blue",
		"Year:   1959",
		"Genre:  Jazz",
		"01. So What  [01:00:00]",
		"burst  v1=0DA2AA05 v2=046B0382  matched (v2, confidence 7)",
		"02. Freddie Freeloader  [01:30:00]",
		"paranoia (re-ripped)  v1=1B2C3D4E v2=5F607182  MISMATCH",
		"03. Blue in Green  [00:30:37]",
		"no registry entry",
		"Total length: 03:00:37",
		"Ripped 3 tracks, 1 verified, 1 mismatched",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("rip log missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "restarted in paranoia mode") {
		t.Fatalf("unexpected full-integrity note:\n%s", content)
	}
}

func TestWriteRipLogFullIntegrityAndHiddenTrack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	meta := albumMetadata()
	result := albumResult(dir)
	result.FullIntegrity = true
	result.HiddenTrack = &ripping.TrackResult{
		Number:  0,
		Title:   "Hidden Track",
		Path:    filepath.Join(dir, "00 - Hidden Track.flac"),
		Mode:    "burst",
		Samples: 588 * 75 * 12,
		Outcome: ripping.OutcomeUnverified,
	}

	path, err := organizing.WriteRipLog(dir, cfg, meta, result)
	if err != nil {
		t.Fatalf("WriteRipLog: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rip log: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "00. Hidden Track  [00:12:00]") {
		t.Fatalf("rip log missing hidden track line:\n%s", content)
	}
	if !strings.Contains(content, "unverified") {
		t.Fatalf("rip log missing unverified outcome:\n%s", content)
	}
	if !strings.Contains(content, "restarted in paranoia mode after a burst extraction failure") {
		t.Fatalf("rip log missing full-integrity note:\n%s", content)
	}
}
