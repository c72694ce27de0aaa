package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"riptide/internal/api"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := api.SortQueueItemsNewestFirst(items)

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		title := strings.TrimSpace(item.DiscTitle)
		if title == "" {
			title = "Unknown Disc"
		}
		artist := api.MetadataArtist(string(item.Metadata))
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			title,
			artist,
			formatStatusLabel(item.Status),
			formatDisplayTime(item.CreatedAt),
			formatFingerprint(item.DiscFingerprint),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t := api.ParseQueueTime(value); !t.IsZero() {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func formatFingerprint(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if len(value) > 12 {
		return value[:12]
	}
	return value
}

func printQueueItemDetail(out io.Writer, item api.QueueItem) {
	title := strings.TrimSpace(item.DiscTitle)
	if title == "" {
		title = "Unknown Disc"
	}
	fmt.Fprintf(out, "Item %d: %s\n", item.ID, title)
	fmt.Fprintf(out, "  Status:      %s\n", formatStatusLabel(item.Status))
	fmt.Fprintf(out, "  Lane:        %s\n", item.ProcessingLane)
	if item.DevicePath != "" {
		fmt.Fprintf(out, "  Device:      %s\n", item.DevicePath)
	}
	if item.DiscFingerprint != "" {
		fmt.Fprintf(out, "  Fingerprint: %s\n", item.DiscFingerprint)
	}
	if item.CreatedAt != "" {
		fmt.Fprintf(out, "  Created:     %s\n", formatDisplayTime(item.CreatedAt))
	}
	if item.UpdatedAt != "" {
		fmt.Fprintf(out, "  Updated:     %s\n", formatDisplayTime(item.UpdatedAt))
	}

	album := api.ParseAlbumView(string(item.Metadata))
	if album.Artist != "" || album.Album != "" {
		line := album.Album
		if album.Artist != "" {
			line = album.Artist + " - " + line
		}
		if album.Year != "" {
			line = fmt.Sprintf("%s (%s)", line, album.Year)
		}
		fmt.Fprintf(out, "  Album:       %s\n", line)
	}

	if stage := strings.TrimSpace(item.Progress.Stage); stage != "" {
		fmt.Fprintf(out, "  Progress:    %s (%.0f%%)\n", stage, item.Progress.Percent)
		if msg := strings.TrimSpace(item.Progress.Message); msg != "" {
			fmt.Fprintf(out, "               %s\n", msg)
		}
	}
	if item.StagingPath != "" {
		fmt.Fprintf(out, "  Staging:     %s\n", item.StagingPath)
	}
	if item.FinalPath != "" {
		fmt.Fprintf(out, "  Library:     %s\n", item.FinalPath)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:       %s\n", item.ErrorMessage)
	}
	if item.NeedsReview {
		fmt.Fprintf(out, "  Review:      %s\n", item.ReviewReason)
	}
	printRipSummary(out, item.Rip)
}

func printRipSummary(out io.Writer, rip *api.RipSummary) {
	if rip == nil {
		return
	}
	fmt.Fprintf(out, "  Rip:         disc %s, %d tracks, registry %s\n", rip.DiscID, rip.TrackCount, rip.Registry)
	fmt.Fprintf(out, "               %d verified, %d mismatched", rip.Verified, rip.Mismatched)
	if rip.FullIntegrity {
		fmt.Fprint(out, ", full integrity")
	}
	fmt.Fprintln(out)
	if rip.RippedAt != "" {
		fmt.Fprintf(out, "               ripped at %s\n", formatDisplayTime(rip.RippedAt))
	}
	for _, track := range rip.Tracks {
		label := fmt.Sprintf("track %02d", track.Number)
		if track.Title != "" {
			label = fmt.Sprintf("%s %s", label, track.Title)
		}
		outcome := track.Outcome
		if track.Confidence > 0 {
			outcome = fmt.Sprintf("%s (confidence %d)", outcome, track.Confidence)
		}
		if track.ReRipped {
			outcome += ", re-ripped"
		}
		fmt.Fprintf(out, "               %s: %s via %s\n", label, outcome, track.Mode)
	}
	if rip.HiddenTrack != nil {
		fmt.Fprintf(out, "               hidden track: %s via %s\n", rip.HiddenTrack.Outcome, rip.HiddenTrack.Mode)
	}
}
