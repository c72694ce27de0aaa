package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"riptide/internal/identification"
	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/organizing"
	"riptide/internal/queue"
	"riptide/internal/ripping"
	"riptide/internal/testsupport"
	"riptide/internal/workflow"
)

// TestWorkflowIntegrationEndToEnd drives a disc through the real stage
// handlers with faked external tools: TOC read, metadata lookup, extraction,
// encoding, and registry verification all run in-process.
func TestWorkflowIntegrationEndToEnd(t *testing.T) {
	cfg := workflowConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	notifier := &recordingNotifier{}

	disc := workflowDisc()
	tocReader := fakeTOCReader{disc: disc}
	searcher := &fakeSearcher{release: albumRelease()}
	registry := &fakeRegistry{records: registryRecordsFor(disc, 9)}
	extractor := &fakeExtractor{t: t, disc: disc}
	encoder := &fakeFlacEncoder{}

	identifier := identification.NewIdentifierWithDependencies(
		cfg, store, logger, tocReader, searcher, registry, notifier)
	ripper := ripping.NewRipperWithDependencies(
		cfg, store, logger, extractor, encoder, registry, nil, notifier)
	finalizer := organizing.NewFinalizerWithDependencies(cfg, store, logger, notifier)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Identifier: identifier,
		Ripper:     ripper,
		Finalizer:  finalizer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("manager.Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item, err := store.NewDisc(ctx, "Unknown Disc", cfg.Drive.Device)
	if err != nil {
		t.Fatalf("store.NewDisc: %v", err)
	}

	final := waitForItem(t, store, item.ID, 120*time.Second, func(updated *queue.Item) bool {
		if updated.Status == queue.StatusFailed {
			t.Fatalf("item failed: %s", updated.ErrorMessage)
		}
		return updated.Status == queue.StatusCompleted
	})

	if final.DiscTitle != "Miles Davis - Kind of Blue" {
		t.Fatalf("disc title = %q", final.DiscTitle)
	}
	if final.FinalPath == "" {
		t.Fatal("expected final path to be set")
	}
	if filepath.Base(final.FinalPath) != "Miles Davis - Kind of Blue (1959)" {
		t.Fatalf("album dir = %q", filepath.Base(final.FinalPath))
	}

	for _, name := range []string{
		"01 - So What.flac",
		"02 - Freddie Freeloader.flac",
		"03 - Blue in Green.flac",
		"Kind of Blue.cue",
		"rip.log",
	} {
		if _, err := os.Stat(filepath.Join(final.FinalPath, name)); err != nil {
			t.Fatalf("library file %s missing: %v", name, err)
		}
	}

	result, err := ripping.ResultFromJSON(final.RipResultJSON)
	if err != nil {
		t.Fatalf("decode rip result: %v", err)
	}
	if result.Registry != ripping.RegistryFound {
		t.Fatalf("registry state = %q, want found", result.Registry)
	}
	for _, track := range result.Tracks {
		if track.Outcome != ripping.OutcomeMatched {
			t.Fatalf("track %d outcome = %q, want matched", track.Number, track.Outcome)
		}
		if filepath.Dir(track.Path) != final.FinalPath {
			t.Fatalf("track %d path %q not rewritten into library", track.Number, track.Path)
		}
	}

	if final.StagingPath != "" {
		if _, err := os.Stat(final.StagingPath); !os.IsNotExist(err) {
			t.Fatalf("staging directory not cleaned: %v", err)
		}
	}

	if searcher.callCount() == 0 {
		t.Fatal("expected metadata lookup to be invoked")
	}
	if extractor.callCount() != 3 {
		t.Fatalf("extractions = %d, want 3", extractor.callCount())
	}
	if encoder.requestCount() != 3 {
		t.Fatalf("encodes = %d, want 3", encoder.requestCount())
	}

	for _, event := range []notifications.Event{
		notifications.EventIdentificationCompleted,
		notifications.EventRipStarted,
		notifications.EventRipCompleted,
		notifications.EventProcessingCompleted,
	} {
		if notifier.countOf(event) == 0 {
			t.Fatalf("expected %s notification", event)
		}
	}
}
