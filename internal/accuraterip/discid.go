package accuraterip

import "fmt"

// DiscID is the compound registry lookup key derived from a disc's track
// offset table. The three values are only meaningful together; mixing parts
// from different discs produces a key that addresses nothing.
type DiscID struct {
	ID1        uint32
	ID2        uint32
	ID3        uint32
	TrackCount int
}

// CalculateDiscID derives the disc ID triple from ordered track start
// offsets (each already including the standard 150-sector lead-in) and the
// lead-out offset (last track end + 150). The result depends on nothing but
// the offsets, so independent reads of the same pressing agree.
func CalculateDiscID(offsets []uint32, leadOut uint32) DiscID {
	return DiscID{
		ID1:        discID1(offsets, leadOut),
		ID2:        discID2(offsets, leadOut),
		ID3:        discID3(offsets, leadOut),
		TrackCount: len(offsets),
	}
}

// discID1 is the FreeDB-style ID: digit sum of each track's start second,
// reduced mod 255, packed with the disc length in seconds and the track
// count.
func discID1(offsets []uint32, leadOut uint32) uint32 {
	if len(offsets) == 0 {
		return 0
	}
	var checksum uint32
	for _, offset := range offsets {
		seconds := offset / 75
		for seconds > 0 {
			checksum += seconds % 10
			seconds /= 10
		}
	}
	checksum %= 255
	totalSeconds := (leadOut - offsets[0]) / 75
	return checksum<<24 | (totalSeconds&0xFFFF)<<8 | uint32(len(offsets))
}

// discID2 folds the offsets into the lead-out with position-dependent
// shifts.
func discID2(offsets []uint32, leadOut uint32) uint32 {
	if len(offsets) == 0 {
		return 0
	}
	id := leadOut
	for i, offset := range offsets {
		id ^= offset << (uint(i) % 8)
	}
	return id
}

// discID3 is a position-weighted sum of the offsets plus a fixed-weight
// lead-out contribution, wrapping at 32 bits each step.
func discID3(offsets []uint32, leadOut uint32) uint32 {
	if len(offsets) == 0 {
		return 0
	}
	var id uint32
	for i, offset := range offsets {
		id += offset * uint32(i+1)
	}
	id += leadOut * 0x98765
	return id
}

// String renders the triple the way the registry names record files.
func (d DiscID) String() string {
	return fmt.Sprintf("%08X-%08X-%08X", d.ID1, d.ID2, d.ID3)
}

// RecordName returns the dBAR record file name for this disc.
func (d DiscID) RecordName() string {
	return fmt.Sprintf("dBAR-%03d-%08X-%08X-%08X.bin", d.TrackCount, d.ID1, d.ID2, d.ID3)
}

// RecordPath returns the registry-relative path of the record file. The
// first three hex digits of ID1 shard the namespace.
func (d DiscID) RecordPath() string {
	hex := fmt.Sprintf("%08X", d.ID1)
	return fmt.Sprintf("%c/%c/%c/%s", hex[0], hex[1], hex[2], d.RecordName())
}

// Zero reports whether the ID carries no track information.
func (d DiscID) Zero() bool {
	return d.TrackCount == 0
}
