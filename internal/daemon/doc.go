// Package daemon coordinates the long-running Riptide process and system
// integration points.
//
// It wires configuration, queue storage, the workflow manager, the disc
// monitors, and the HTTP API into a single lifecycle with flock-based locking
// to prevent multiple instances. The daemon exposes queue maintenance helpers,
// reacts to disc insertions via udev netlink events with a drive-status poll
// as fallback, and emits dependency health summaries.
//
// Keep orchestration logic here: individual workflow stages should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
