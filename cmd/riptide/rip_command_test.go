package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"riptide/internal/queue"
)

func TestRipRefusesWhenDaemonLockHeld(t *testing.T) {
	env := setupCLITestEnv(t)

	lock := flock.New(filepath.Join(env.cfg.Paths.LogDir, "riptide.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	_, _, err = runCLI(t, []string{"rip"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock refusal, got %v", err)
	}
}

func TestRipRecordsFailedItemWhenDriveUnreadable(t *testing.T) {
	env := setupCLITestEnv(t)

	// The stubbed cd-paranoia emits no TOC, so identification fails and the
	// item must be persisted in the failed state for a later retry.
	_, _, err := runCLI(t, []string{"rip"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "identifier stage") {
		t.Fatalf("expected identifier failure, got %v", err)
	}

	failed, listErr := env.store.ItemsByStatus(context.Background(), queue.StatusFailed)
	if listErr != nil {
		t.Fatalf("list failed items: %v", listErr)
	}
	if len(failed) != 1 {
		t.Fatalf("expected one failed item, got %d", len(failed))
	}
	if failed[0].DevicePath != env.cfg.Drive.Device {
		t.Fatalf("unexpected device %q", failed[0].DevicePath)
	}
	if failed[0].ErrorMessage == "" {
		t.Fatal("expected an error message on the failed item")
	}
}
