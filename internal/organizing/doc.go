// Package organizing implements the finalizing stage. It moves encoded
// tracks from staging into the library as "Artist - Album (Year)", writes
// the cue sheet and rip log next to them, records the final layout on the
// queue item, and cleans up the staging directory.
//
// Finalizing runs on the background lane, after the drive has already been
// released by the rip stage, so a slow library filesystem never blocks the
// next disc.
package organizing
