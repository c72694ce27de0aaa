// Package ripping orchestrates the extraction stage for queued discs.
//
// A rip session extracts every track with a fast burst pass, computes the
// registry checksums from the intermediate WAV, encodes tagged FLAC, and
// matches each track against the registry record set. Tracks that mismatch
// get one selective paranoia re-extraction; a burst failure on any non-final
// track abandons all burst output and restarts the disc in paranoia mode.
// The final track follows its own bounded retry ladder because drives
// routinely misreport the lead-out position.
//
// Registry absence is not failure: a disc without a registry entry finishes
// as an unverified rip, and a track that still mismatches after re-ripping
// is kept as the best achievable read. Centralize new extraction behaviours
// here so the workflow manager interacts with a single, well-tested
// abstraction.
package ripping
