package accuraterip

// TrackMatch reports how a locally computed checksum pair compared against
// every pressing in a record set. A zero confidence means that checksum
// version matched no pressing.
type TrackMatch struct {
	V1Confidence int
	V2Confidence int
}

// MatchTrack scans every record for the given zero-based track index and
// returns the highest confidence seen for each checksum version. Records
// with fewer tracks than the index are skipped; pressings disagree on track
// counts more often than one would hope.
func MatchTrack(records []Record, trackIndex int, sums ChecksumPair) TrackMatch {
	var match TrackMatch
	for _, record := range records {
		if trackIndex < 0 || trackIndex >= len(record.Tracks) {
			continue
		}
		entry := record.Tracks[trackIndex]
		confidence := int(entry.Confidence)
		if entry.Checksum == sums.V1 && confidence > match.V1Confidence {
			match.V1Confidence = confidence
		}
		if entry.Checksum == sums.V2 && confidence > match.V2Confidence {
			match.V2Confidence = confidence
		}
	}
	return match
}

// Accepted reports whether the track passes verification. With requireBoth
// set, both checksum versions must have matched; otherwise either one is
// enough.
func (m TrackMatch) Accepted(requireBoth bool) bool {
	if requireBoth {
		return m.V1Confidence > 0 && m.V2Confidence > 0
	}
	return m.V1Confidence > 0 || m.V2Confidence > 0
}

// Label names which checksum versions matched, for logs and rip reports.
func (m TrackMatch) Label() string {
	switch {
	case m.V1Confidence > 0 && m.V2Confidence > 0:
		return "v1+v2"
	case m.V2Confidence > 0:
		return "v2"
	case m.V1Confidence > 0:
		return "v1"
	default:
		return "none"
	}
}

// Confidence returns the strongest confidence across both versions.
func (m TrackMatch) Confidence() int {
	if m.V1Confidence > m.V2Confidence {
		return m.V1Confidence
	}
	return m.V2Confidence
}
