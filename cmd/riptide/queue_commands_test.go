package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"riptide/internal/queue"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0"); err != nil {
		t.Fatalf("alpha disc: %v", err)
	}

	beta, err := env.store.NewDisc(ctx, "Beta", "/dev/sr0")
	if err != nil {
		t.Fatalf("beta disc: %v", err)
	}
	beta.Status = queue.StatusFailed
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("beta failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Alpha")
	requireContains(t, out, "Beta")
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0")
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	alpha.Status = queue.StatusFailed
	if err := env.store.Update(ctx, alpha); err != nil {
		t.Fatalf("alpha failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed items")

	updated, err := env.store.GetByID(ctx, alpha.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}

	updated.Status = queue.StatusFailed
	if err := env.store.Update(ctx, updated); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed items")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared")
}

func TestQueueHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue-health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue-health: %v", err)
	}
	requireContains(t, out, "Database path:")
	requireContains(t, out, "queue_items table present:")
}

func TestQueueRetrySpecificID(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0")
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	alpha.Status = queue.StatusFailed
	if err := env.store.Update(ctx, alpha); err != nil {
		t.Fatalf("alpha failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry specific: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d reset for retry", alpha.ID))
}

func TestQueueStopReturnsItemToPending(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0")
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	item.Status = queue.StatusRipping
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("alpha ripping: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "stop", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue stop: %v", err)
	}
	requireContains(t, out, "stopped")
	requireContains(t, out, "returned to pending")

	updated, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	if updated.ProgressStage != queue.UserStopReason {
		t.Fatalf("expected progress stage %q, got %q", queue.UserStopReason, updated.ProgressStage)
	}
	if updated.ErrorMessage != "" {
		t.Fatalf("expected empty error message, got %q", updated.ErrorMessage)
	}
}

func TestQueueStopCompletedItemIsSkipped(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0")
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	item.Status = queue.StatusCompleted
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("alpha completed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "stop", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue stop: %v", err)
	}
	requireContains(t, out, "already completed")

	updated, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
}

func TestQueueRemoveSpecificID(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0")
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d removed", item.ID))

	gone, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected item removed, got %+v", gone)
	}
}

func TestQueueRetryInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "retry", "abc"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0"); err != nil {
		t.Fatalf("alpha disc: %v", err)
	}
	if _, err := env.store.NewDisc(ctx, "Beta", "/dev/sr0"); err != nil {
		t.Fatalf("beta disc: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}

	var resp struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	for _, item := range resp.Items {
		if _, ok := item["id"]; !ok {
			t.Fatal("missing 'id' key in JSON item")
		}
		if _, ok := item["status"]; !ok {
			t.Fatal("missing 'status' key in JSON item")
		}
	}
}

func TestQueueStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0"); err != nil {
		t.Fatalf("alpha disc: %v", err)
	}
	beta, err := env.store.NewDisc(ctx, "Beta", "/dev/sr0")
	if err != nil {
		t.Fatalf("beta disc: %v", err)
	}
	beta.Status = queue.StatusFailed
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("beta failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status --json: %v", err)
	}

	var resp struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if resp.Counts["pending"] != 1 {
		t.Fatalf("expected 1 pending, got %v", resp.Counts)
	}
	if resp.Counts["failed"] != 1 {
		t.Fatalf("expected 1 failed, got %v", resp.Counts)
	}
}

func TestQueueDescribeJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0")
	if err != nil {
		t.Fatalf("alpha disc: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "describe", fmt.Sprintf("%d", item.ID), "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue describe --json: %v", err)
	}

	var resp struct {
		Item map[string]any `json:"item"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if resp.Item["id"] != float64(item.ID) {
		t.Fatalf("expected id %d, got %v", item.ID, resp.Item["id"])
	}
	if resp.Item["discTitle"] != "Alpha" {
		t.Fatalf("expected discTitle Alpha, got %v", resp.Item["discTitle"])
	}
}

func TestQueueDescribeShowsRipSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewDisc(ctx, "Abbey Road", "/dev/sr0")
	if err != nil {
		t.Fatalf("new disc: %v", err)
	}
	item.Status = queue.StatusCompleted
	item.DiscFingerprint = "fp-abbey-road"
	item.MetadataJSON = `{"artist":"The Beatles","album":"Abbey Road","year":"1969"}`
	item.RipResultJSON = `{"disc_id":"730e7a10","track_count":2,"registry":"confirmed","tracks":[{"number":1,"checksum_v1":"0a1b2c3d","checksum_v2":"4e5f6071","outcome":"verified","mode":"burst","confidence":12},{"number":2,"checksum_v1":"11223344","checksum_v2":"55667788","outcome":"verified","mode":"paranoia","confidence":9,"re_ripped":true}]}`
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("update item: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "describe", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue describe: %v", err)
	}
	requireContains(t, out, "Abbey Road")
	requireContains(t, out, "The Beatles")
	requireContains(t, out, "730e7a10")
	requireContains(t, out, "verified")
}

func TestQueueHealthJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewDisc(ctx, "Alpha", "/dev/sr0"); err != nil {
		t.Fatalf("alpha disc: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "health", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue health --json: %v", err)
	}

	var health map[string]any
	if err := json.Unmarshal([]byte(out), &health); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if health["Total"] != float64(1) {
		t.Fatalf("expected Total=1, got %v", health["Total"])
	}
	if health["Pending"] != float64(1) {
		t.Fatalf("expected Pending=1, got %v", health["Pending"])
	}
}
