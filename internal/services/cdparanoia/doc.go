// Package cdparanoia mediates access to the cd-paranoia CLI used for TOC
// queries and audio extraction.
//
// It normalizes command invocation across the burst, lenient, paranoia, and
// emergency extraction modes, parses stderr progress output, and exposes
// testable interfaces for the identification and ripping stages.
//
// Prefer this package over ad-hoc exec.Command usage when interacting with
// cd-paranoia so timeout handling and process shutdown remain consistent.
package cdparanoia
