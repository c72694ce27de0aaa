package api

import (
	"encoding/json"
	"slices"
	"time"

	"riptide/internal/queue"
	"riptide/internal/ripping"
	"riptide/internal/stage"
	"riptide/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:             item.ID,
		DiscTitle:      item.DiscTitle,
		DevicePath:     item.DevicePath,
		Status:         string(item.Status),
		ProcessingLane: string(queue.LaneForItem(item)),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:    item.ErrorMessage,
		DiscFingerprint: item.DiscFingerprint,
		StagingPath:     item.StagingPath,
		FinalPath:       item.FinalPath,
		NeedsReview:     item.NeedsReview,
		ReviewReason:    item.ReviewReason,
	}

	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if raw := item.MetadataJSON; raw != "" {
		dto.Metadata = json.RawMessage(raw)
	}
	if summary := deriveRipSummary(item); summary != nil {
		dto.Rip = summary
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}

	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func deriveRipSummary(item *queue.Item) *RipSummary {
	if item == nil || item.RipResultJSON == "" {
		return nil
	}
	result, err := ripping.ResultFromJSON(item.RipResultJSON)
	if err != nil {
		return nil
	}
	summary := &RipSummary{
		DiscID:        result.DiscID,
		TrackCount:    result.TrackCount,
		Registry:      result.Registry,
		Verified:      result.Verified(),
		Mismatched:    result.Mismatched(),
		FullIntegrity: result.FullIntegrity,
		RippedAt:      FormatTime(result.RippedAt),
	}
	if len(result.Tracks) > 0 {
		summary.Tracks = make([]TrackVerification, 0, len(result.Tracks))
		for _, track := range result.Tracks {
			summary.Tracks = append(summary.Tracks, trackVerification(track))
		}
	}
	if result.HiddenTrack != nil {
		hidden := trackVerification(*result.HiddenTrack)
		summary.HiddenTrack = &hidden
	}
	return summary
}

func trackVerification(track ripping.TrackResult) TrackVerification {
	return TrackVerification{
		Number:     track.Number,
		Title:      track.Title,
		Mode:       track.Mode,
		ChecksumV1: track.ChecksumV1,
		ChecksumV2: track.ChecksumV2,
		Outcome:    string(track.Outcome),
		Confidence: track.Confidence,
		ReRipped:   track.ReRipped,
	}
}
