package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/queue"
	"riptide/internal/services"
	"riptide/internal/stage"
	"riptide/internal/testsupport"
	"riptide/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func TestManagerProcessesItems(t *testing.T) {
	cfg := workflowConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Identifier: newStubStage("identifier"),
		Ripper:     newStubStage("ripper"),
		Finalizer:  newStubStage("finalizer"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item, err := store.NewDisc(ctx, "Pipeline Disc", "/dev/sr0")
	if err != nil {
		t.Fatalf("NewDisc: %v", err)
	}

	final := waitForItem(t, store, item.ID, 60*time.Second, func(updated *queue.Item) bool {
		return updated.Status == queue.StatusCompleted
	})
	if final.ProgressPercent != 100 {
		t.Fatalf("progress percent = %v, want 100", final.ProgressPercent)
	}

	if notifier.queueStartCount() != 1 {
		t.Fatalf("queue start notifications = %d, want 1", notifier.queueStartCount())
	}
	deadline := time.After(10 * time.Second)
	for notifier.queueCompleteCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected queue completion notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	status := mgr.Status(ctx)
	if !status.Running {
		t.Fatal("expected running status while started")
	}
	if status.QueueStats[queue.StatusCompleted] != 1 {
		t.Fatalf("completed count = %d, want 1", status.QueueStats[queue.StatusCompleted])
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	err := mgr.Start(context.Background())
	if err == nil {
		t.Fatal("expected error when no stages are configured")
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestManagerStartTwice(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Identifier: newStubStage("identifier")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	if err := mgr.Start(ctx); err == nil {
		t.Fatal("expected error for second Start")
	}
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := newStubStage("identifier")
	handler.health = stage.Unhealthy(handler.name, "drive unavailable")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Identifier: handler})

	status := mgr.Status(context.Background())
	health, ok := status.StageHealth[handler.name]
	if !ok {
		t.Fatalf("expected stage health entry for %s", handler.name)
	}
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if health.Detail != "drive unavailable" {
		t.Fatalf("health detail = %q", health.Detail)
	}
}

func TestManagerFailureDefaultsToFailed(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("ripper")
	failing.executeErr = errors.New("drive read error")

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{Ripper: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := seedIdentifiedItem(t, store, "Failing Disc")

	final := waitForItem(t, store, item.ID, 30*time.Second, func(updated *queue.Item) bool {
		return updated.Status == queue.StatusFailed
	})
	if final.ProgressStage != "Failed" {
		t.Fatalf("progress stage = %q, want Failed", final.ProgressStage)
	}
	if final.ErrorMessage == "" {
		t.Fatal("expected error message to be populated")
	}
	if final.NeedsReview {
		t.Fatal("plain failures must not flag review")
	}

	deadline := time.After(10 * time.Second)
	for notifier.countOf(notifications.EventError) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected error notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerValidationFailureFlagsReview(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	message := "Disc layout does not match any known release"
	failing := newStubStage("ripper")
	failing.executeErr = services.Wrap(
		services.ErrValidation, "ripping", "verify layout", message, nil)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Ripper: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := seedIdentifiedItem(t, store, "Review Disc")

	final := waitForItem(t, store, item.ID, 30*time.Second, func(updated *queue.Item) bool {
		return updated.Status == queue.StatusFailed
	})
	if !final.NeedsReview {
		t.Fatal("validation failures must flag review")
	}
	if final.ReviewReason != message {
		t.Fatalf("review reason = %q, want %q", final.ReviewReason, message)
	}
	if final.ErrorMessage != message {
		t.Fatalf("error message = %q, want %q", final.ErrorMessage, message)
	}
}

func TestManagerPrepareFailureFailsItem(t *testing.T) {
	cfg := workflowConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	failing := newStubStage("identifier")
	failing.prepareErr = errors.New("no disc in drive")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Identifier: failing})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item, err := store.NewDisc(ctx, "Prepare Failure", "/dev/sr0")
	if err != nil {
		t.Fatalf("NewDisc: %v", err)
	}

	final := waitForItem(t, store, item.ID, 30*time.Second, func(updated *queue.Item) bool {
		return updated.Status == queue.StatusFailed
	})
	if !strings.Contains(final.ErrorMessage, "no disc in drive") {
		t.Fatalf("error message = %q", final.ErrorMessage)
	}
}

func seedIdentifiedItem(t *testing.T, store *queue.Store, title string) *queue.Item {
	t.Helper()
	item, err := store.NewDisc(context.Background(), title, "/dev/sr0")
	if err != nil {
		t.Fatalf("NewDisc: %v", err)
	}
	item.Status = queue.StatusIdentified
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return item
}
