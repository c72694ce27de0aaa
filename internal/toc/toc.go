// Package toc models a disc's table of contents and parses the track table
// reported by cd-paranoia's query mode.
package toc

// leadInSectors is the standard 2-second offset between LBA 0 and the start
// of the program area.
const leadInSectors = 150

// htoaMinSectors is the smallest pre-track-1 gap treated as hidden audio
// rather than an ordinary pause.
const htoaMinSectors = leadInSectors

// Track describes one audio track. Sector values are LBA positions, without
// the 150-sector lead-in shift used for registry offsets.
type Track struct {
	Number              int
	StartSector         int
	LengthSectors       int
	HasHiddenLeadIn     bool
	HiddenLeadInSectors int
}

// EndSector returns the first sector past the end of the track.
func (t Track) EndSector() int {
	return t.StartSector + t.LengthSectors
}

// Disc is the table of contents for one disc, immutable for the lifetime of
// a rip session.
type Disc struct {
	Tracks        []Track
	LeadOutSector int
	TotalSectors  int
}

// TrackCount returns the number of audio tracks.
func (d Disc) TrackCount() int {
	return len(d.Tracks)
}

// LastTrack returns the final track, if any.
func (d Disc) LastTrack() (Track, bool) {
	if len(d.Tracks) == 0 {
		return Track{}, false
	}
	return d.Tracks[len(d.Tracks)-1], true
}

// Offsets returns the registry-form track offsets (start sector plus the
// 150-sector lead-in) and the lead-out offset. The identifier calculator
// consumes these directly.
func (d Disc) Offsets() ([]uint32, uint32) {
	offsets := make([]uint32, 0, len(d.Tracks))
	for _, track := range d.Tracks {
		offsets = append(offsets, uint32(track.StartSector+leadInSectors))
	}
	return offsets, uint32(d.LeadOutSector)
}
