package accuraterip

// SectorSamples is the number of combined stereo sample words in one CD
// sector (2352 bytes / 4 bytes per sample).
const SectorSamples = 588

// boundarySectors is the width of the exclusion window at the disc edges.
// The registry convention ignores the first five sectors of the first track
// and the last five sectors of the last track, where drive-dependent jitter
// makes samples unreliable.
const boundarySectors = 5

// ChecksumPair holds the two independent 32-bit checksums computed for one
// track's audio content. A re-extraction replaces the pair wholesale.
type ChecksumPair struct {
	V1 uint32
	V2 uint32
}

// Zero reports whether both checksums are zero. A zero pair is produced for
// tracks too short to survive the boundary exclusion and can never match the
// registry.
func (p ChecksumPair) Zero() bool {
	return p.V1 == 0 && p.V2 == 0
}

// Checksums computes the v1 and v2 track checksums over combined stereo
// sample words (left channel in the low 16 bits, right channel in the high
// 16 bits, treated as unsigned 32-bit integers).
//
// The sample multiplier is the 1-based position within the full unsliced
// track, so the exclusion windows change which samples contribute but never
// renumber the ones that remain. v1 wraps every product at 32 bits; v2 keeps
// the high half of the 64-bit product in a second wrapping sum, preserving
// the carries v1 discards.
func Checksums(samples []uint32, trackNumber, totalTracks int) ChecksumPair {
	start := 0
	end := len(samples)
	if trackNumber == 1 {
		start = boundarySectors * SectorSamples
	}
	if trackNumber == totalTracks {
		end -= boundarySectors * SectorSamples
	}
	if start >= end {
		// Exclusion windows consumed the whole track.
		return ChecksumPair{}
	}

	var sumLow, sumHigh uint32
	for i := start; i < end; i++ {
		product := uint64(samples[i]) * uint64(i+1)
		sumLow += uint32(product)
		sumHigh += uint32(product >> 32)
	}
	return ChecksumPair{V1: sumLow, V2: sumLow + sumHigh}
}
