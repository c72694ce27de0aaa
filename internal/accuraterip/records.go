package accuraterip

import (
	"encoding/binary"
	"fmt"
)

const (
	recordHeaderSize = 13 // trackCount u8 + three u32 disc IDs
	trackEntrySize   = 5  // confidence u8 + checksum u32
)

// TrackEntry is one track's stored checksum and the number of independent
// submissions that agree with it.
type TrackEntry struct {
	Confidence uint8
	Checksum   uint32
}

// Record is one pressing's worth of registry data: the disc ID it was
// submitted under and a checksum entry per track.
type Record struct {
	TrackCount int
	ID1        uint32
	ID2        uint32
	ID3        uint32
	Tracks     []TrackEntry
}

// ParseRecords decodes a dBAR response body. Records repeat back to back,
// one per known pressing: a 13-byte header (track count byte, three
// little-endian disc IDs) followed by a 5-byte entry per track. A body that
// ends mid-record is malformed.
func ParseRecords(data []byte) ([]Record, error) {
	var records []Record
	pos := 0
	for pos < len(data) {
		if len(data)-pos < recordHeaderSize {
			return nil, fmt.Errorf("accuraterip: truncated record header at byte %d", pos)
		}
		trackCount := int(data[pos])
		record := Record{
			TrackCount: trackCount,
			ID1:        binary.LittleEndian.Uint32(data[pos+1:]),
			ID2:        binary.LittleEndian.Uint32(data[pos+5:]),
			ID3:        binary.LittleEndian.Uint32(data[pos+9:]),
		}
		pos += recordHeaderSize

		body := trackCount * trackEntrySize
		if len(data)-pos < body {
			return nil, fmt.Errorf("accuraterip: truncated track entries at byte %d (want %d tracks)", pos, trackCount)
		}
		record.Tracks = make([]TrackEntry, trackCount)
		for i := 0; i < trackCount; i++ {
			record.Tracks[i] = TrackEntry{
				Confidence: data[pos],
				Checksum:   binary.LittleEndian.Uint32(data[pos+1:]),
			}
			pos += trackEntrySize
		}
		records = append(records, record)
	}
	return records, nil
}

// AppendRecord serializes a record in wire format. Used by tests and tools
// that fabricate registry responses.
func AppendRecord(dst []byte, record Record) []byte {
	dst = append(dst, byte(record.TrackCount))
	dst = binary.LittleEndian.AppendUint32(dst, record.ID1)
	dst = binary.LittleEndian.AppendUint32(dst, record.ID2)
	dst = binary.LittleEndian.AppendUint32(dst, record.ID3)
	for _, track := range record.Tracks {
		dst = append(dst, track.Confidence)
		dst = binary.LittleEndian.AppendUint32(dst, track.Checksum)
	}
	return dst
}
