package toc

import "fmt"

// Validate checks a disc descriptor before it feeds identifier computation
// and extraction. Duplicate track numbers from a misparsed table are dropped,
// first occurrence wins. Ordering violations are hard errors: extraction
// must never run against a table the drive disagrees with.
func Validate(d Disc) (Disc, error) {
	if len(d.Tracks) == 0 {
		return Disc{}, fmt.Errorf("toc: no tracks found")
	}

	seen := make(map[int]bool, len(d.Tracks))
	tracks := make([]Track, 0, len(d.Tracks))
	for _, track := range d.Tracks {
		if seen[track.Number] {
			continue
		}
		seen[track.Number] = true
		tracks = append(tracks, track)
	}

	for i, track := range tracks {
		if track.Number < 1 {
			return Disc{}, fmt.Errorf("toc: invalid track number %d", track.Number)
		}
		if track.LengthSectors <= 0 {
			return Disc{}, fmt.Errorf("toc: track %d has non-positive length %d", track.Number, track.LengthSectors)
		}
		if track.StartSector < 0 {
			return Disc{}, fmt.Errorf("toc: track %d has negative start sector %d", track.Number, track.StartSector)
		}
		if i > 0 && track.StartSector <= tracks[i-1].StartSector {
			return Disc{}, fmt.Errorf("toc: track %d start sector %d does not advance past track %d",
				track.Number, track.StartSector, tracks[i-1].Number)
		}
	}

	validated := Disc{
		Tracks:        tracks,
		LeadOutSector: d.LeadOutSector,
		TotalSectors:  d.TotalSectors,
	}
	last := tracks[len(tracks)-1]
	if validated.LeadOutSector < last.EndSector() {
		validated.LeadOutSector = last.EndSector() + leadInSectors
	}
	if validated.TotalSectors == 0 {
		validated.TotalSectors = last.EndSector()
	}
	return validated, nil
}
