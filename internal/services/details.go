package services

import (
	"errors"
	"strings"
)

// ErrorKind is the classification derived from a sentinel marker.
type ErrorKind string

const (
	KindConfiguration       ErrorKind = "configuration"
	KindEncoding            ErrorKind = "encoding"
	KindExtraction          ErrorKind = "extraction"
	KindLastTrack           ErrorKind = "last_track_extraction"
	KindVerification        ErrorKind = "verification_mismatch"
	KindRegistryUnavailable ErrorKind = "registry_unavailable"
	KindExternalTool        ErrorKind = "external_tool"
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindTimeout             ErrorKind = "timeout"
	KindTransient           ErrorKind = "transient"
	KindUnknown             ErrorKind = "unknown"
)

// Detail is the structured view of a wrapped stage error used by failure
// logging and queue persistence. Message holds only the human text; the
// stage and operation segments stay in their own fields.
type Detail struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Cause     error
}

var kindOrder = []struct {
	marker error
	kind   ErrorKind
}{
	{ErrConfiguration, KindConfiguration},
	{ErrEncoding, KindEncoding},
	{ErrLastTrack, KindLastTrack},
	{ErrExtraction, KindExtraction},
	{ErrVerification, KindVerification},
	{ErrRegistryUnavailable, KindRegistryUnavailable},
	{ErrExternalTool, KindExternalTool},
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
	{ErrTimeout, KindTimeout},
	{ErrTransient, KindTransient},
}

// Details extracts the kind, human message, and root cause from an error
// produced by Wrap. Unrecognized errors get KindUnknown with their full text.
func Details(err error) Detail {
	if err == nil {
		return Detail{Kind: KindUnknown}
	}
	detail := Detail{Kind: KindUnknown, Message: err.Error(), Cause: errors.Unwrap(err)}
	for _, entry := range kindOrder {
		if errors.Is(err, entry.marker) {
			detail.Kind = entry.kind
			detail.Message = strings.TrimSpace(strings.TrimPrefix(err.Error(), entry.marker.Error()+":"))
			break
		}
	}
	var wrapped *stageError
	if errors.As(err, &wrapped) {
		detail.Stage = wrapped.stage
		detail.Operation = wrapped.operation
		detail.Cause = wrapped.cause
		switch {
		case wrapped.message != "":
			detail.Message = wrapped.message
		case wrapped.cause != nil:
			detail.Message = strings.TrimSpace(wrapped.cause.Error())
		default:
			detail.Message = buildDetail(wrapped.stage, wrapped.operation, "")
		}
	}
	if detail.Message == "" {
		detail.Message = err.Error()
	}
	return detail
}
