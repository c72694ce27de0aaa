package cdparanoia

import (
	"strconv"
	"strings"
)

// wordsPerSector is the number of 16-bit words in one audio sector; progress
// callbacks report positions in words.
const wordsPerSector = 1176

// sectorsPerSecond is the CD audio frame rate.
const sectorsPerSecond = 75

// ProgressUpdate reports extraction position within the current span.
type ProgressUpdate struct {
	Sector  int // absolute disc sector last written
	Percent float64
}

// progressTracker turns cd-paranoia stderr output into progress updates. The
// span header supplies the sector range, after which "wrote" callback lines
// yield a position and a percentage.
type progressTracker struct {
	start     int
	stop      int
	spanKnown bool
}

func newProgressTracker() *progressTracker {
	return &progressTracker{}
}

// Consume inspects one output line. It returns an update only for write
// callbacks; header and status lines adjust tracker state silently.
func (p *progressTracker) Consume(line string) (ProgressUpdate, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "Ripping from sector") {
		if sector, ok := sectorAfterKeyword(trimmed); ok {
			p.start = sector
			p.spanKnown = false
		}
		return ProgressUpdate{}, false
	}
	if strings.HasPrefix(trimmed, "to sector") {
		if sector, ok := sectorAfterKeyword(trimmed); ok {
			p.stop = sector
			p.spanKnown = p.stop >= p.start
		}
		return ProgressUpdate{}, false
	}

	words, ok := parseWroteOffset(trimmed)
	if !ok {
		return ProgressUpdate{}, false
	}
	update := ProgressUpdate{Sector: words / wordsPerSector}
	if p.spanKnown {
		length := p.stop - p.start + 1
		done := update.Sector - p.start
		switch {
		case done < 0:
			done = 0
		case done > length:
			done = length
		}
		update.Percent = float64(done) / float64(length) * 100
	}
	return update, true
}

// parseWroteOffset extracts the word offset from a "##: n [wrote] @ offset"
// callback line. Other callback kinds (read, verify, fixup) are ignored; they
// revisit earlier positions and would make progress jump backwards.
func parseWroteOffset(line string) (int, bool) {
	if !strings.HasPrefix(line, "##:") {
		return 0, false
	}
	open := strings.IndexByte(line, '[')
	closing := strings.IndexByte(line, ']')
	if open < 0 || closing < open {
		return 0, false
	}
	if line[open+1:closing] != "wrote" {
		return 0, false
	}
	rest := line[closing+1:]
	at := strings.IndexByte(rest, '@')
	if at < 0 {
		return 0, false
	}
	offset, err := strconv.Atoi(strings.TrimSpace(rest[at+1:]))
	if err != nil || offset < 0 {
		return 0, false
	}
	return offset, true
}

// sectorAfterKeyword pulls the integer following the word "sector".
func sectorAfterKeyword(line string) (int, bool) {
	fields := strings.Fields(line)
	for i, field := range fields {
		if field != "sector" || i+1 >= len(fields) {
			continue
		}
		value, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}
