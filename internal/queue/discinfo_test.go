package queue

import (
	"testing"

	"riptide/internal/accuraterip"
	"riptide/internal/toc"
)

func referenceDisc() toc.Disc {
	return toc.Disc{
		Tracks: []toc.Track{
			{Number: 1, StartSector: 0, LengthSectors: 1000},
			{Number: 2, StartSector: 1000, LengthSectors: 1000},
			{Number: 3, StartSector: 2000, LengthSectors: 500},
		},
		LeadOutSector: 2650,
		TotalSectors:  2500,
	}
}

func TestDiscInfoRoundTrip(t *testing.T) {
	disc := referenceDisc()
	offsets, leadOut := disc.Offsets()
	id := accuraterip.CalculateDiscID(offsets, leadOut)

	info := NewDiscInfo("/dev/sr0", disc, id)
	encoded, err := info.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DiscInfoFromJSON(encoded)
	if err != nil {
		t.Fatalf("DiscInfoFromJSON: %v", err)
	}
	if decoded.Device != "/dev/sr0" {
		t.Fatalf("expected device preserved, got %q", decoded.Device)
	}
	if decoded.TrackCount() != 3 {
		t.Fatalf("expected 3 tracks, got %d", decoded.TrackCount())
	}

	rebuilt := decoded.Disc()
	if rebuilt.LeadOutSector != disc.LeadOutSector {
		t.Fatalf("expected lead-out %d, got %d", disc.LeadOutSector, rebuilt.LeadOutSector)
	}
	for i, track := range rebuilt.Tracks {
		if track != disc.Tracks[i] {
			t.Fatalf("track %d mismatch: got %+v want %+v", i+1, track, disc.Tracks[i])
		}
	}

	rebuiltID := decoded.DiscID()
	if rebuiltID != id {
		t.Fatalf("disc ID mismatch: got %+v want %+v", rebuiltID, id)
	}
}

func TestDiscInfoFingerprintFormat(t *testing.T) {
	disc := referenceDisc()
	offsets, leadOut := disc.Offsets()
	id := accuraterip.CalculateDiscID(offsets, leadOut)
	info := NewDiscInfo("/dev/sr0", disc, id)

	want := "003-12002103-000023A8-62A3AE46"
	if got := info.Fingerprint(); got != want {
		t.Fatalf("Fingerprint() = %q, want %q", got, want)
	}
}

func TestDiscInfoPreservesHiddenLeadIn(t *testing.T) {
	disc := toc.Disc{
		Tracks: []toc.Track{
			{Number: 1, StartSector: 400, LengthSectors: 1000, HasHiddenLeadIn: true, HiddenLeadInSectors: 400},
			{Number: 2, StartSector: 1400, LengthSectors: 800},
		},
		LeadOutSector: 2350,
	}
	offsets, leadOut := disc.Offsets()
	info := NewDiscInfo("", disc, accuraterip.CalculateDiscID(offsets, leadOut))

	rebuilt := info.Disc()
	if !rebuilt.Tracks[0].HasHiddenLeadIn || rebuilt.Tracks[0].HiddenLeadInSectors != 400 {
		t.Fatalf("expected hidden lead-in preserved, got %+v", rebuilt.Tracks[0])
	}
	if rebuilt.Tracks[1].HasHiddenLeadIn {
		t.Fatalf("expected track 2 without hidden lead-in, got %+v", rebuilt.Tracks[1])
	}
}

func TestDiscInfoFromJSONRejectsEmpty(t *testing.T) {
	if _, err := DiscInfoFromJSON(`{"tracks":[]}`); err == nil {
		t.Fatal("expected error for descriptor without tracks")
	}
	if _, err := DiscInfoFromJSON("{broken"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestStagingRootPrefersFingerprint(t *testing.T) {
	item := Item{ID: 7, DiscFingerprint: "003-12002103-000023a8-62a3ae46"}
	got := item.StagingRoot("/staging")
	want := "/staging/003-12002103-000023A8-62A3AE46"
	if got != want {
		t.Fatalf("StagingRoot = %q, want %q", got, want)
	}

	item.DiscFingerprint = ""
	got = item.StagingRoot("/staging")
	want = "/staging/queue-7"
	if got != want {
		t.Fatalf("StagingRoot without fingerprint = %q, want %q", got, want)
	}

	if got := item.StagingRoot("  "); got != "" {
		t.Fatalf("expected empty staging root for blank base, got %q", got)
	}
}
