package toc

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Track rows look like:
//
//	1.    17957 [03:59.32]        0 [00:00.00]    no   no  2
//
// with the sector counts authoritative and the bracketed times redundant.
var (
	trackRowPattern = regexp.MustCompile(`^(\d+)\.\s+(\d+)\s+\[[\d:.]+\]\s+(\d+)\s+\[[\d:.]+\]`)
	totalRowPattern = regexp.MustCompile(`^TOTAL\s+(\d+)`)
)

// ParseQueryOutput decodes the track table cd-paranoia prints in query mode.
// The tool writes the table to stderr together with banner and drive chatter;
// unrecognized lines are ignored.
func ParseQueryOutput(output string) (Disc, error) {
	text := strings.TrimSpace(output)
	if text == "" {
		return Disc{}, errors.New("toc: empty query output")
	}

	var disc Disc
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if match := trackRowPattern.FindStringSubmatch(trimmed); match != nil {
			number, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			length, err := strconv.Atoi(match[2])
			if err != nil {
				continue
			}
			begin, err := strconv.Atoi(match[3])
			if err != nil {
				continue
			}
			disc.Tracks = append(disc.Tracks, Track{
				Number:        number,
				StartSector:   begin,
				LengthSectors: length,
			})
			continue
		}
		if match := totalRowPattern.FindStringSubmatch(trimmed); match != nil {
			if total, err := strconv.Atoi(match[1]); err == nil {
				disc.TotalSectors = total
			}
		}
	}

	if len(disc.Tracks) == 0 {
		return Disc{}, errors.New("toc: no tracks found")
	}

	last := disc.Tracks[len(disc.Tracks)-1]
	disc.LeadOutSector = last.EndSector() + leadInSectors
	if disc.TotalSectors == 0 {
		disc.TotalSectors = last.EndSector()
	}

	// Audio occupying the gap before track 1 is a hidden track; flag it so
	// the cue sheet can describe it.
	if first := &disc.Tracks[0]; first.StartSector > htoaMinSectors {
		first.HasHiddenLeadIn = true
		first.HiddenLeadInSectors = first.StartSector
	}

	return disc, nil
}
