package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"riptide/internal/disc"
	"riptide/internal/logging"
	"riptide/internal/queue"
	"riptide/internal/testsupport"
)

type stubIdentifier struct {
	info        discInfo
	fingerprint string
	err         error
	calls       atomic.Int32
}

func (s *stubIdentifier) Identify(ctx context.Context, device string) (discInfo, string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return discInfo{}, "", s.err
	}
	info := s.info
	if info.Device == "" {
		info.Device = device
	}
	return info, s.fingerprint, nil
}

func newTestMonitor(t *testing.T, identifier discIdentifier, status statusFunc) (*discMonitor, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := newDiscMonitor(cfg, store, logging.NewNop(), nil)
	if m == nil {
		t.Fatal("expected disc monitor")
	}
	if identifier != nil {
		m.identifier = identifier
	}
	if status != nil {
		m.status = status
	}
	return m, store
}

func TestDiscMonitorQueuesNewDisc(t *testing.T) {
	identifier := &stubIdentifier{
		info:        discInfo{Title: "Audio CD (12 tracks)", TrackCount: 12},
		fingerprint: "012-abc12345-def67890-9a0b0c0d",
	}
	m, store := newTestMonitor(t, identifier, nil)

	result := m.handleDetectedDisc(context.Background(), "/dev/sr0")
	if result == nil || !result.Handled {
		t.Fatalf("expected disc to be handled, got %+v", result)
	}

	item, err := store.GetByID(context.Background(), result.ItemID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item == nil {
		t.Fatal("expected queued item")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}
	if item.DiscFingerprint != identifier.fingerprint {
		t.Fatalf("expected fingerprint %q, got %q", identifier.fingerprint, item.DiscFingerprint)
	}
	if item.DiscTitle != "Audio CD (12 tracks)" {
		t.Fatalf("unexpected title %q", item.DiscTitle)
	}
	if item.DevicePath != "/dev/sr0" {
		t.Fatalf("unexpected device %q", item.DevicePath)
	}
}

func TestDiscMonitorResetsExistingItem(t *testing.T) {
	const fingerprint = "010-0a0b0c0d-11223344-55667788"
	identifier := &stubIdentifier{
		info:        discInfo{Title: "Audio CD (10 tracks)", TrackCount: 10},
		fingerprint: fingerprint,
	}
	m, store := newTestMonitor(t, identifier, nil)
	ctx := context.Background()

	existing := testsupport.NewDisc(t, store, "Audio CD (10 tracks)", "/dev/sr0")
	existing.Status = queue.StatusFailed
	existing.ErrorMessage = "rip failed"
	existing.DiscFingerprint = fingerprint
	if err := store.Update(ctx, existing); err != nil {
		t.Fatalf("update: %v", err)
	}

	result := m.handleDetectedDisc(ctx, "/dev/sr0")
	if result == nil || !result.Handled {
		t.Fatalf("expected disc to be handled, got %+v", result)
	}
	if result.ItemID != existing.ID {
		t.Fatalf("expected existing item %d, got %d", existing.ID, result.ItemID)
	}

	reloaded, err := store.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusPending {
		t.Fatalf("expected reset to pending, got %s", reloaded.Status)
	}
	if reloaded.ErrorMessage != "" {
		t.Fatalf("expected cleared error, got %q", reloaded.ErrorMessage)
	}
}

func TestDiscMonitorSkipsCompletedDuplicate(t *testing.T) {
	const fingerprint = "008-deadbeef-cafef00d-00112233"
	identifier := &stubIdentifier{
		info:        discInfo{Title: "Audio CD (8 tracks)", TrackCount: 8},
		fingerprint: fingerprint,
	}
	m, store := newTestMonitor(t, identifier, nil)
	ctx := context.Background()

	existing := testsupport.NewDisc(t, store, "Finished Album", "/dev/sr0")
	existing.Status = queue.StatusCompleted
	existing.DiscFingerprint = fingerprint
	if err := store.Update(ctx, existing); err != nil {
		t.Fatalf("update: %v", err)
	}

	result := m.handleDetectedDisc(ctx, "/dev/sr0")
	if result == nil || !result.Handled {
		t.Fatalf("expected duplicate to be handled, got %+v", result)
	}

	reloaded, err := store.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusCompleted {
		t.Fatalf("expected completed status preserved, got %s", reloaded.Status)
	}
	if reloaded.DiscTitle != "Finished Album" {
		t.Fatalf("expected real title preserved, got %q", reloaded.DiscTitle)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected no new item, got %d items", len(items))
	}
}

func TestDiscMonitorSkipsAlreadyInWorkflow(t *testing.T) {
	const fingerprint = "011-01020304-05060708-090a0b0c"
	identifier := &stubIdentifier{
		info:        discInfo{Title: "Audio CD (11 tracks)", TrackCount: 11},
		fingerprint: fingerprint,
	}
	m, store := newTestMonitor(t, identifier, nil)
	ctx := context.Background()

	existing := testsupport.NewDisc(t, store, "Audio CD (11 tracks)", "/dev/sr0")
	existing.Status = queue.StatusRipping
	existing.DiscFingerprint = fingerprint
	if err := store.Update(ctx, existing); err != nil {
		t.Fatalf("update: %v", err)
	}

	result := m.handleDetectedDisc(ctx, "/dev/sr0")
	if result == nil || !result.Handled {
		t.Fatalf("expected in-flight duplicate to be handled, got %+v", result)
	}

	reloaded, err := store.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != queue.StatusRipping {
		t.Fatalf("expected ripping status preserved, got %s", reloaded.Status)
	}
}

func TestDiscMonitorIdentifyFailure(t *testing.T) {
	identifier := &stubIdentifier{err: errors.New("toc read failed")}
	m, store := newTestMonitor(t, identifier, nil)

	result := m.handleDetectedDisc(context.Background(), "/dev/sr0")
	if result == nil || result.Handled {
		t.Fatalf("expected detection failure, got %+v", result)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(items))
	}
}

func TestDiscMonitorPollIgnoresEmptyDrive(t *testing.T) {
	identifier := &stubIdentifier{fingerprint: "001-00000001-00000002-00000003"}
	m, store := newTestMonitor(t, identifier, func(string) (disc.DriveStatus, error) {
		return disc.DriveStatusNoDisc, nil
	})
	m.ctx = context.Background()

	m.poll()
	m.wg.Wait()

	if identifier.calls.Load() != 0 {
		t.Fatal("expected no identification attempt without a disc")
	}
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(items))
	}
}

func TestDiscMonitorPollQueuesDisc(t *testing.T) {
	identifier := &stubIdentifier{
		info:        discInfo{Title: "Audio CD (9 tracks)", TrackCount: 9},
		fingerprint: "009-0000000a-0000000b-0000000c",
	}
	m, store := newTestMonitor(t, identifier, func(string) (disc.DriveStatus, error) {
		return disc.DriveStatusDiscOK, nil
	})
	m.ctx = context.Background()

	m.poll()
	m.wg.Wait()

	if identifier.calls.Load() != 1 {
		t.Fatalf("expected one identification attempt, got %d", identifier.calls.Load())
	}
	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one queued item, got %d", len(items))
	}

	// Disc stays tracked, so further polls must not re-identify.
	m.poll()
	m.wg.Wait()
	if identifier.calls.Load() != 1 {
		t.Fatalf("expected tracked disc to be skipped, got %d calls", identifier.calls.Load())
	}
}

func TestDiscMonitorPollRespectsPause(t *testing.T) {
	identifier := &stubIdentifier{fingerprint: "002-0000000d-0000000e-0000000f"}
	m, _ := newTestMonitor(t, identifier, func(string) (disc.DriveStatus, error) {
		return disc.DriveStatusDiscOK, nil
	})
	m.ctx = context.Background()
	m.isPaused = func() bool { return true }

	m.poll()
	m.wg.Wait()

	if identifier.calls.Load() != 0 {
		t.Fatal("expected paused monitor to skip detection")
	}
}

func TestDiscMonitorDetectNowWhileProcessing(t *testing.T) {
	identifier := &stubIdentifier{fingerprint: "003-00000010-00000011-00000012"}
	m, _ := newTestMonitor(t, identifier, nil)

	m.mu.Lock()
	m.processing = true
	m.mu.Unlock()

	result, err := m.DetectNow(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("DetectNow: %v", err)
	}
	if result.Handled {
		t.Fatal("expected concurrent detection to be declined")
	}
	if identifier.calls.Load() != 0 {
		t.Fatal("expected no identification while processing")
	}
}

func TestDiscMonitorStartStop(t *testing.T) {
	identifier := &stubIdentifier{fingerprint: "004-00000013-00000014-00000015"}
	m, _ := newTestMonitor(t, identifier, func(string) (disc.DriveStatus, error) {
		return disc.DriveStatusNoDisc, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop in time")
	}
}
