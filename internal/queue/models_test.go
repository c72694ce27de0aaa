package queue

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"pending", StatusPending, true},
		{" RIPPING ", StatusRipping, true},
		{"Finalizing", StatusFinalizing, true},
		{"", "", false},
		{"encoding", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestProcessingStatusSet(t *testing.T) {
	processing := []Status{StatusIdentifying, StatusRipping, StatusFinalizing}
	for _, status := range processing {
		if !IsProcessingStatus(status) {
			t.Fatalf("expected %s to be processing", status)
		}
	}
	for _, status := range []Status{StatusPending, StatusIdentified, StatusRipped, StatusCompleted, StatusFailed} {
		if IsProcessingStatus(status) {
			t.Fatalf("expected %s not to be processing", status)
		}
	}
}

func TestSetFailedClearsHeartbeat(t *testing.T) {
	now := time.Now().UTC()
	item := Item{Status: StatusRipping, LastHeartbeat: &now, ProgressPercent: 55}
	item.SetFailed("drive gave up")

	if item.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", item.Status)
	}
	if item.ErrorMessage != "drive gave up" {
		t.Fatalf("unexpected error message %q", item.ErrorMessage)
	}
	if item.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
	if item.ProgressPercent != 0 {
		t.Fatalf("expected progress reset, got %f", item.ProgressPercent)
	}
}

func TestSetStoppedReturnsToPending(t *testing.T) {
	now := time.Now().UTC()
	item := Item{Status: StatusRipping, LastHeartbeat: &now, ErrorMessage: "partial", ProgressPercent: 40}
	item.SetStopped("")

	if item.Status != StatusPending {
		t.Fatalf("expected pending after stop, got %s", item.Status)
	}
	if item.ErrorMessage != "" {
		t.Fatalf("expected error cleared on stop, got %q", item.ErrorMessage)
	}
	if item.ProgressStage != UserStopReason {
		t.Fatalf("expected stop reason %q, got %q", UserStopReason, item.ProgressStage)
	}
	if item.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
	if !IsUserStopReason(item.ProgressStage) {
		t.Fatal("expected progress stage to read as user stop")
	}
}

func TestInitProgressPreservesExistingStage(t *testing.T) {
	item := Item{ProgressStage: "Ripping", ErrorMessage: "old"}
	item.InitProgress("Identifying", "starting over")

	if item.ProgressStage != "Ripping" {
		t.Fatalf("expected existing stage preserved, got %q", item.ProgressStage)
	}
	if item.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", item.ErrorMessage)
	}

	fresh := Item{}
	fresh.InitProgress("Identifying", "reading table of contents")
	if fresh.ProgressStage != "Identifying" {
		t.Fatalf("expected stage set on fresh item, got %q", fresh.ProgressStage)
	}
}

func TestLaneForItem(t *testing.T) {
	cases := []struct {
		status Status
		want   ProcessingLane
	}{
		{StatusPending, LaneForeground},
		{StatusIdentifying, LaneForeground},
		{StatusIdentified, LaneForeground},
		{StatusRipping, LaneForeground},
		{StatusRipped, LaneBackground},
		{StatusFinalizing, LaneBackground},
		{StatusCompleted, LaneBackground},
		{StatusFailed, LaneForeground},
	}
	for _, tc := range cases {
		item := &Item{Status: tc.status}
		if got := LaneForItem(item); got != tc.want {
			t.Fatalf("LaneForItem(%s) = %s, want %s", tc.status, got, tc.want)
		}
	}
	if got := LaneForItem(nil); got != LaneForeground {
		t.Fatalf("LaneForItem(nil) = %s, want foreground", got)
	}
}

func TestIsInWorkflow(t *testing.T) {
	inWorkflow := []Status{StatusIdentifying, StatusIdentified, StatusRipping, StatusRipped, StatusFinalizing, StatusCompleted}
	for _, status := range inWorkflow {
		item := Item{Status: status}
		if !item.IsInWorkflow() {
			t.Fatalf("expected %s to be in workflow", status)
		}
	}
	for _, status := range []Status{StatusPending, StatusFailed} {
		item := Item{Status: status}
		if item.IsInWorkflow() {
			t.Fatalf("expected %s not to be in workflow", status)
		}
	}
}
