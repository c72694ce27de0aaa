package services

import (
	"errors"
	"strings"
)

// Sentinel markers for failure classification. Callers branch on these with
// errors.Is; the message text is for humans only.
var (
	// ErrConfiguration marks unusable device, path, or settings problems.
	// Fatal: the session stops immediately and is surfaced for review.
	ErrConfiguration = errors.New("configuration error")

	// ErrEncoding marks a track that could not be losslessly encoded.
	// Fatal: silent data loss is unacceptable, so the session aborts.
	ErrEncoding = errors.New("encoding error")

	// ErrExtraction marks a non-zero extraction exit on a non-last track.
	// Burst mode is abandoned and the session falls back to full-integrity
	// extraction for every track.
	ErrExtraction = errors.New("extraction error")

	// ErrLastTrack marks the bounded last-track extraction failure. The
	// session degrades to full-integrity mode for that track only.
	ErrLastTrack = errors.New("last track extraction error")

	// ErrVerification marks a checksum mismatch against the registry.
	// Triggers one re-extraction, after which the result is accepted.
	ErrVerification = errors.New("verification mismatch")

	// ErrRegistryUnavailable marks network or availability failures talking
	// to the checksum registry. Treated as "unverifiable", never as failure.
	ErrRegistryUnavailable = errors.New("registry unavailable")

	ErrExternalTool = errors.New("external tool error")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("timeout")
	ErrTransient    = errors.New("transient failure")
)

// Wrap builds an error that carries the stage context as structured fields
// while tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &stageError{
		marker:    marker,
		stage:     strings.TrimSpace(stage),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// stageError keeps the stage, operation, and human message separate so
// Details can surface the message alone while Error renders the full chain.
type stageError struct {
	marker    error
	stage     string
	operation string
	message   string
	cause     error
}

func (e *stageError) Error() string {
	detail := e.marker.Error() + ": " + buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		detail += ": " + e.cause.Error()
	}
	return detail
}

func (e *stageError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.marker}
	}
	return []error{e.marker, e.cause}
}

// Fatal reports whether the error kind must abort the session. Only
// configuration and encoding failures qualify; everything else either
// self-heals or degrades to a lower-confidence but complete rip.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrEncoding)
}

// ReviewRequired reports whether a failed item should be flagged for operator
// review rather than plain retry.
func ReviewRequired(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
