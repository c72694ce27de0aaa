// Package identification reads a disc's table of contents and enriches the
// queue item before ripping runs.
//
// The Identifier drives one cd-paranoia TOC query, validates the table,
// derives the registry identifier triple, and then fetches album metadata and
// the registry record set concurrently. Results land on the queue item as a
// disc descriptor, album metadata, and a fingerprint used for duplicate
// detection. Metadata failures never block the pipeline; the stage degrades
// to placeholder tags instead.
//
// Centralize new identification heuristics here, keeping IO and queue updates
// in one place to avoid skew across stages.
package identification
