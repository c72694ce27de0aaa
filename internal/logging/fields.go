package logging

// Standardized structured logging keys shared across components.
const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldItemID carries the queue item identifier.
	FieldItemID = "item_id"
	// FieldStage carries the workflow stage name.
	FieldStage = "stage"
	// FieldLane carries the workflow lane name.
	FieldLane = "lane"
	// FieldCorrelationID carries request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out.
	FieldAlert = "alert"
	// FieldEventType categorizes records for downstream filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next diagnostic step for a failure.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the classified failure kind for stage errors.
	FieldErrorKind = "error_kind"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// Disc and extraction domain keys.
const (
	// FieldDiscID carries the verification registry disc identifier.
	FieldDiscID = "disc_id"
	// FieldDevice carries the optical drive device path.
	FieldDevice = "device"
	// FieldTrack carries a 1-based audio track number.
	FieldTrack = "track"
	// FieldPhase carries the extraction phase (burst, paranoia, lenient).
	FieldPhase = "phase"
)

// Progress keys emitted by long-running extraction and encoding work.
const (
	FieldProgressStage   = "progress_stage"
	FieldProgressPercent = "progress_percent"
	FieldProgressMessage = "progress_message"
)
