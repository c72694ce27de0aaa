package accuraterip_test

import (
	"testing"

	"riptide/internal/accuraterip"
)

func TestChecksumsMiddleTrackNoExclusion(t *testing.T) {
	samples := []uint32{1, 2, 3}
	pair := accuraterip.Checksums(samples, 2, 3)
	if pair.V1 != 14 {
		t.Fatalf("expected v1 14, got %d", pair.V1)
	}
	if pair.V2 != 14 {
		t.Fatalf("expected v2 14 when no product overflows, got %d", pair.V2)
	}
}

func TestChecksumsCarryFeedsV2(t *testing.T) {
	samples := []uint32{0, 0xFFFFFFFF, 0}
	pair := accuraterip.Checksums(samples, 2, 3)
	if pair.V1 != 0xFFFFFFFE {
		t.Fatalf("expected v1 FFFFFFFE, got %08X", pair.V1)
	}
	if pair.V2 != 0xFFFFFFFF {
		t.Fatalf("expected v2 to include the carried high word, got %08X", pair.V2)
	}
}

func TestChecksumsFirstTrackExclusion(t *testing.T) {
	samples := make([]uint32, 6*accuraterip.SectorSamples)
	for i := range samples {
		samples[i] = 1
	}
	pair := accuraterip.Checksums(samples, 1, 2)
	// Remaining multipliers are 2941..3528; their sum is 1901886.
	if pair.V1 != 1901886 {
		t.Fatalf("expected v1 1901886, got %d", pair.V1)
	}
	if pair.V2 != pair.V1 {
		t.Fatalf("expected v1 and v2 to agree on small products, got %d and %d", pair.V1, pair.V2)
	}
}

func TestChecksumsLastTrackExclusion(t *testing.T) {
	samples := make([]uint32, 6*accuraterip.SectorSamples)
	for i := range samples {
		samples[i] = 1
	}
	pair := accuraterip.Checksums(samples, 2, 2)
	// Remaining multipliers are 1..588; their sum is 173166.
	if pair.V1 != 173166 {
		t.Fatalf("expected v1 173166, got %d", pair.V1)
	}
}

func TestChecksumsBothExclusionsOnSingleTrack(t *testing.T) {
	samples := make([]uint32, 11*accuraterip.SectorSamples)
	for i := range samples {
		samples[i] = 1
	}
	pair := accuraterip.Checksums(samples, 1, 1)
	// Exclusions strip five sectors from each end, leaving multipliers 2941..3528.
	if pair.V1 != 1901886 {
		t.Fatalf("expected v1 1901886, got %d", pair.V1)
	}
}

func TestChecksumsOverlapClampsToZero(t *testing.T) {
	samples := make([]uint32, accuraterip.SectorSamples)
	for i := range samples {
		samples[i] = 0xDEADBEEF
	}
	pair := accuraterip.Checksums(samples, 1, 1)
	if !pair.Zero() {
		t.Fatalf("expected zero pair when exclusions consume the whole track, got %08X/%08X", pair.V1, pair.V2)
	}
}

func TestChecksumsSilentSectorSingleTrack(t *testing.T) {
	samples := make([]uint32, accuraterip.SectorSamples)
	pair := accuraterip.Checksums(samples, 1, 1)
	if pair.V1 != 0 || pair.V2 != 0 {
		t.Fatalf("expected both checksums zero for a silent single-sector disc, got %08X/%08X", pair.V1, pair.V2)
	}
}

func TestChecksumsDeterministic(t *testing.T) {
	samples := make([]uint32, 8*accuraterip.SectorSamples)
	state := uint32(0x1F2E3D4C)
	for i := range samples {
		state = state*1664525 + 1013904223
		samples[i] = state
	}
	first := accuraterip.Checksums(samples, 1, 3)
	second := accuraterip.Checksums(samples, 1, 3)
	if first != second {
		t.Fatalf("expected identical pairs across invocations, got %+v and %+v", first, second)
	}
	if first.Zero() {
		t.Fatal("expected non-zero checksums for non-silent audio")
	}
}

func TestChecksumsEmptyInput(t *testing.T) {
	if pair := accuraterip.Checksums(nil, 1, 1); !pair.Zero() {
		t.Fatalf("expected zero pair for empty input, got %+v", pair)
	}
}
