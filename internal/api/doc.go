// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal queue models into transport-friendly DTOs
// so clients can render daemon state without coupling to internal types.
//
// # Key Types
//
// QueueItem: transport representation of a queue entry with progress, rip
// verification summary, and album metadata passthrough.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and last item.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem with the per-track verification
// summary derived from the persisted rip result.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// StageHealthSlice: deterministic ordering of stage health map.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status, queue.ProcessingLane) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds. Album metadata is passed through
// as json.RawMessage to avoid double-encoding.
//
// The rip summary is derived from the stored rip result rather than kept as
// separate columns, so the API always reflects the persisted verification
// state.
package api
