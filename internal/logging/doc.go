// Package logging builds the slog loggers used across riptide.
//
// Loggers are constructed from the application config and write either a
// human-oriented console format or JSON. The package also carries the
// supporting plumbing: standardized field names, context-derived attributes,
// fan-out and per-component level handlers, an in-memory event hub that feeds
// the IPC log tail, and on-disk event archiving with retention pruning.
package logging
