package accuraterip_test

import (
	"testing"

	"riptide/internal/accuraterip"
)

func TestMatchTrackBothVersions(t *testing.T) {
	sums := accuraterip.ChecksumPair{V1: 0xAAAA0001, V2: 0xBBBB0002}
	records := []accuraterip.Record{
		sampleRecord([]uint8{9}, []uint32{sums.V1}),
		sampleRecord([]uint8{4}, []uint32{sums.V2}),
	}
	match := accuraterip.MatchTrack(records, 0, sums)
	if match.V1Confidence != 9 {
		t.Fatalf("expected v1 confidence 9, got %d", match.V1Confidence)
	}
	if match.V2Confidence != 4 {
		t.Fatalf("expected v2 confidence 4, got %d", match.V2Confidence)
	}
	if got := match.Label(); got != "v1+v2" {
		t.Fatalf("expected label v1+v2, got %q", got)
	}
	if got := match.Confidence(); got != 9 {
		t.Fatalf("expected combined confidence 9, got %d", got)
	}
}

func TestMatchTrackKeepsHighestConfidence(t *testing.T) {
	sums := accuraterip.ChecksumPair{V1: 0x12345678, V2: 0x9ABCDEF0}
	records := []accuraterip.Record{
		sampleRecord([]uint8{3}, []uint32{sums.V1}),
		sampleRecord([]uint8{11}, []uint32{sums.V1}),
		sampleRecord([]uint8{6}, []uint32{sums.V1}),
	}
	match := accuraterip.MatchTrack(records, 0, sums)
	if match.V1Confidence != 11 {
		t.Fatalf("expected highest v1 confidence 11, got %d", match.V1Confidence)
	}
}

func TestMatchTrackSkipsShortRecords(t *testing.T) {
	sums := accuraterip.ChecksumPair{V1: 0x0BADF00D, V2: 0x0BADF00D}
	records := []accuraterip.Record{
		sampleRecord([]uint8{8}, []uint32{sums.V1}),
	}
	match := accuraterip.MatchTrack(records, 3, sums)
	if match.Accepted(false) {
		t.Fatal("expected no match for track index past record length")
	}
	if got := match.Label(); got != "none" {
		t.Fatalf("expected label none, got %q", got)
	}
}

func TestMatchAcceptanceRequireBoth(t *testing.T) {
	v2Only := accuraterip.TrackMatch{V2Confidence: 5}
	if !v2Only.Accepted(false) {
		t.Fatal("expected single-version match to pass when both not required")
	}
	if v2Only.Accepted(true) {
		t.Fatal("expected single-version match to fail when both required")
	}
	if got := v2Only.Label(); got != "v2" {
		t.Fatalf("expected label v2, got %q", got)
	}

	both := accuraterip.TrackMatch{V1Confidence: 2, V2Confidence: 5}
	if !both.Accepted(true) {
		t.Fatal("expected dual-version match to pass when both required")
	}

	v1Only := accuraterip.TrackMatch{V1Confidence: 7}
	if got := v1Only.Label(); got != "v1" {
		t.Fatalf("expected label v1, got %q", got)
	}
}

func TestMatchTrackNoConfusionAcrossIndexes(t *testing.T) {
	sums := accuraterip.ChecksumPair{V1: 0x11112222, V2: 0x33334444}
	record := sampleRecord([]uint8{10, 10}, []uint32{0x55556666, sums.V1})
	match := accuraterip.MatchTrack([]accuraterip.Record{record}, 0, sums)
	if match.Accepted(false) {
		t.Fatal("expected checksum stored at another track index not to match")
	}
}
