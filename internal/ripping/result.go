package ripping

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome classifies one track's registry verification result.
type Outcome string

const (
	// OutcomeMatched means the track checksum matched a registry entry.
	OutcomeMatched Outcome = "matched"
	// OutcomeMismatch means registry data exists but no entry matched.
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeNoEntry means the registry holds no record for this disc.
	OutcomeNoEntry Outcome = "no-entry"
	// OutcomeUnverified means no comparison was possible: verification is
	// disabled, the registry was unreachable, or the track produced a zero
	// checksum.
	OutcomeUnverified Outcome = "unverified"
)

// Acceptable reports whether the outcome lets the track stand without
// remediation. Only a genuine mismatch warrants a re-rip.
func (o Outcome) Acceptable() bool {
	return o != OutcomeMismatch
}

// Registry resolution states recorded on the rip result.
const (
	RegistryFound       = "found"
	RegistryMissing     = "missing"
	RegistryUnreachable = "unreachable"
	RegistryDisabled    = "disabled"
)

// TrackResult captures the extraction and verification result for one track.
// Checksums are stored as eight-digit hex, matching registry convention.
type TrackResult struct {
	Number     int     `json:"number"`
	Title      string  `json:"title,omitempty"`
	Path       string  `json:"path"`
	Mode       string  `json:"mode"`
	Samples    uint64  `json:"samples"`
	ChecksumV1 string  `json:"checksum_v1"`
	ChecksumV2 string  `json:"checksum_v2"`
	Outcome    Outcome `json:"outcome"`
	Confidence int     `json:"confidence,omitempty"`
	Match      string  `json:"match,omitempty"`
	ReRipped   bool    `json:"re_ripped,omitempty"`
}

// Result is the durable record of one rip session, persisted on the queue
// item for the finalizing stage and the rip log.
type Result struct {
	DiscID        string        `json:"disc_id"`
	TrackCount    int           `json:"track_count"`
	Registry      string        `json:"registry"`
	FullIntegrity bool          `json:"full_integrity,omitempty"`
	Tracks        []TrackResult `json:"tracks"`
	HiddenTrack   *TrackResult  `json:"hidden_track,omitempty"`
	RippedAt      time.Time     `json:"ripped_at"`
}

// ResultFromJSON decodes a persisted rip result.
func ResultFromJSON(data string) (Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return Result{}, fmt.Errorf("decode rip result: %w", err)
	}
	return result, nil
}

// Encode serializes the result for queue persistence.
func (r Result) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode rip result: %w", err)
	}
	return string(data), nil
}

// Verified counts tracks whose checksums matched a registry entry.
func (r Result) Verified() int {
	count := 0
	for _, track := range r.Tracks {
		if track.Outcome == OutcomeMatched {
			count++
		}
	}
	return count
}

// Mismatched counts tracks that stayed mismatched after remediation.
func (r Result) Mismatched() int {
	count := 0
	for _, track := range r.Tracks {
		if track.Outcome == OutcomeMismatch {
			count++
		}
	}
	return count
}

// Summary renders a one-line verification summary for progress messages,
// notifications, and the rip log.
func (r Result) Summary() string {
	switch r.Registry {
	case RegistryDisabled:
		return fmt.Sprintf("Ripped %d tracks (verification disabled)", r.TrackCount)
	case RegistryUnreachable:
		return fmt.Sprintf("Ripped %d tracks (registry unreachable)", r.TrackCount)
	case RegistryMissing:
		return fmt.Sprintf("Ripped %d tracks (disc not in registry)", r.TrackCount)
	}
	verified := r.Verified()
	if mismatched := r.Mismatched(); mismatched > 0 {
		return fmt.Sprintf("Ripped %d tracks, %d verified, %d mismatched", r.TrackCount, verified, mismatched)
	}
	if verified == r.TrackCount {
		return fmt.Sprintf("Ripped and verified all %d tracks", r.TrackCount)
	}
	return fmt.Sprintf("Ripped %d tracks, %d verified", r.TrackCount, verified)
}
