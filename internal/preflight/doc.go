// Package preflight validates the runtime environment before the daemon
// starts processing discs.
//
// Checks cover directory permissions, external binary availability, and
// reachability of the checksum registry and metadata endpoints. The daemon
// runs them at workflow startup and the CLI status command reuses them so
// both report from the same source.
package preflight
