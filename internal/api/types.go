package api

import (
	"encoding/json"
	"time"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID              int64           `json:"id"`
	DiscTitle       string          `json:"discTitle"`
	DevicePath      string          `json:"devicePath"`
	Status          string          `json:"status"`
	ProcessingLane  string          `json:"processingLane"`
	Progress        QueueProgress   `json:"progress"`
	ErrorMessage    string          `json:"errorMessage"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
	DiscFingerprint string          `json:"discFingerprint,omitempty"`
	StagingPath     string          `json:"stagingPath,omitempty"`
	FinalPath       string          `json:"finalPath,omitempty"`
	NeedsReview     bool            `json:"needsReview"`
	ReviewReason    string          `json:"reviewReason,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	Rip             *RipSummary     `json:"rip,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// RipSummary condenses a persisted rip result for API consumers.
type RipSummary struct {
	DiscID        string              `json:"discId"`
	TrackCount    int                 `json:"trackCount"`
	Registry      string              `json:"registry"`
	Verified      int                 `json:"verified"`
	Mismatched    int                 `json:"mismatched"`
	FullIntegrity bool                `json:"fullIntegrity"`
	RippedAt      string              `json:"rippedAt,omitempty"`
	Tracks        []TrackVerification `json:"tracks,omitempty"`
	HiddenTrack   *TrackVerification  `json:"hiddenTrack,omitempty"`
}

// TrackVerification reports extraction mode and registry outcome for one track.
type TrackVerification struct {
	Number     int    `json:"number"`
	Title      string `json:"title,omitempty"`
	Mode       string `json:"mode"`
	ChecksumV1 string `json:"checksumV1"`
	ChecksumV2 string `json:"checksumV2"`
	Outcome    string `json:"outcome"`
	Confidence int    `json:"confidence,omitempty"`
	ReRipped   bool   `json:"reRipped,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// StatusLine is a labeled readiness line rendered by status views.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency readiness for status views.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missing_required"`
	MissingOptional int    `json:"missing_optional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	LogPath      string             `json:"logPath,omitempty"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// LogEvent is the transport form of a structured log line.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	ItemID    int64             `json:"itemId,omitempty"`
	Lane      string            `json:"lane,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse carries buffered log events plus the next cursor.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
