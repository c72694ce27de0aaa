package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"riptide/internal/accuraterip"
	"riptide/internal/config"
	"riptide/internal/musicbrainz"
	"riptide/internal/notifications"
	"riptide/internal/queue"
	"riptide/internal/services/cdparanoia"
	"riptide/internal/services/flacenc"
	"riptide/internal/testsupport"
	"riptide/internal/toc"
)

// recordingNotifier captures published events. The manager publishes from
// lane goroutines, so all access is mutex guarded.
type recordingNotifier struct {
	mu             sync.Mutex
	events         []notifications.Event
	queueStarts    []int
	queueCompletes []notifications.Payload
	stageErrors    []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	switch event {
	case notifications.EventQueueStarted:
		if count, ok := payload["count"].(int); ok {
			r.queueStarts = append(r.queueStarts, count)
		}
	case notifications.EventQueueCompleted:
		r.queueCompletes = append(r.queueCompletes, payload)
	case notifications.EventError:
		r.stageErrors = append(r.stageErrors, payload)
	}
	return nil
}

func (r *recordingNotifier) countOf(event notifications.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, seen := range r.events {
		if seen == event {
			total++
		}
	}
	return total
}

func (r *recordingNotifier) queueStartCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queueStarts)
}

func (r *recordingNotifier) queueCompleteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queueCompletes)
}

// workflowConfig tightens the polling and heartbeat intervals so lane loops
// react within test timeouts.
func workflowConfig(t testing.TB, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Workflow.QueuePollInterval = 0
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 5
	cfg.Workflow.DiscMonitor = false
	return cfg
}

// waitForItem polls the store until the predicate holds or the deadline
// passes. It reports the item's final state on timeout.
func waitForItem(t *testing.T, store *queue.Store, id int64, timeout time.Duration, pred func(*queue.Item) bool) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var last *queue.Item
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item == nil {
			t.Fatal("queue item disappeared")
		}
		if pred(item) {
			return item
		}
		last = item
		time.Sleep(20 * time.Millisecond)
	}
	if last != nil {
		t.Fatalf("timed out waiting for item %d: status %s, stage %q, error %q",
			id, last.Status, last.ProgressStage, last.ErrorMessage)
	}
	t.Fatalf("timed out waiting for item %d", id)
	return nil
}

// workflowDisc returns a short three-track disc used by the pipeline tests.
func workflowDisc() toc.Disc {
	return toc.Disc{
		Tracks: []toc.Track{
			{Number: 1, StartSector: 0, LengthSectors: 20},
			{Number: 2, StartSector: 20, LengthSectors: 24},
			{Number: 3, StartSector: 44, LengthSectors: 16},
		},
		LeadOutSector: 210,
		TotalSectors:  60,
	}
}

func albumRelease() *musicbrainz.Release {
	return &musicbrainz.Release{
		MBID:   "mbid-workflow",
		Title:  "Kind of Blue",
		Artist: "Miles Davis",
		Date:   "1959",
		Genre:  "jazz",
		Tracks: []musicbrainz.ReleaseTrack{
			{Position: 1, Title: "So What", Artist: "Miles Davis"},
			{Position: 2, Title: "Freddie Freeloader", Artist: "Miles Davis"},
			{Position: 3, Title: "Blue in Green", Artist: "Miles Davis"},
		},
	}
}

// audioPattern seeds each track's PCM content from its number so every track
// yields a distinct registry checksum.
func audioPattern(track int) func(int) (int, int) {
	return func(frame int) (int, int) {
		left := (frame*7 + track*131) % 32768
		right := (frame*13 + track*257) % 32768
		return left, right
	}
}

func workflowDiscID(disc toc.Disc) accuraterip.DiscID {
	offsets, leadOut := disc.Offsets()
	return accuraterip.CalculateDiscID(offsets, leadOut)
}

// registryRecordsFor builds a single-pressing record set whose entries carry
// the v2 checksums of the clean audio the fake extractor produces.
func registryRecordsFor(disc toc.Disc, confidence uint8) []accuraterip.Record {
	id := workflowDiscID(disc)
	record := accuraterip.Record{
		TrackCount: disc.TrackCount(),
		ID1:        id.ID1,
		ID2:        id.ID2,
		ID3:        id.ID3,
	}
	for _, track := range disc.Tracks {
		frames := track.LengthSectors * accuraterip.SectorSamples
		samples := make([]uint32, frames)
		gen := audioPattern(track.Number)
		for i := range samples {
			left, right := gen(i)
			samples[i] = uint32(uint16(left)) | uint32(uint16(right))<<16
		}
		pair := accuraterip.Checksums(samples, track.Number, disc.TrackCount())
		record.Tracks = append(record.Tracks, accuraterip.TrackEntry{
			Confidence: confidence,
			Checksum:   pair.V2,
		})
	}
	return []accuraterip.Record{record}
}

type fakeTOCReader struct {
	disc toc.Disc
	err  error
}

func (f fakeTOCReader) ReadTOC(context.Context) (toc.Disc, error) {
	return f.disc, f.err
}

type fakeSearcher struct {
	release *musicbrainz.Release
	err     error

	mu    sync.Mutex
	calls int
}

func (f *fakeSearcher) LookupDiscID(context.Context, string, int) (*musicbrainz.Release, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.release, f.err
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRegistry struct {
	records []accuraterip.Record
	err     error

	mu    sync.Mutex
	calls int
}

func (f *fakeRegistry) Lookup(context.Context, accuraterip.DiscID) ([]accuraterip.Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.records, f.err
}

// fakeExtractor writes deterministic WAV audio per track.
type fakeExtractor struct {
	t    testing.TB
	disc toc.Disc

	mu    sync.Mutex
	calls int
}

func (f *fakeExtractor) RipTrack(ctx context.Context, req cdparanoia.TrackRequest, progress func(cdparanoia.ProgressUpdate)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	var track toc.Track
	for _, candidate := range f.disc.Tracks {
		if candidate.Number == req.Track {
			track = candidate
		}
	}
	frames := track.LengthSectors * accuraterip.SectorSamples
	testsupport.WriteWAV(f.t, req.OutputPath, frames, audioPattern(req.Track))
	if progress != nil {
		progress(cdparanoia.ProgressUpdate{Sector: track.EndSector(), Percent: 100})
	}
	return nil
}

func (f *fakeExtractor) RipHiddenLeadIn(ctx context.Context, sectors int, outputPath string, progress func(cdparanoia.ProgressUpdate)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	testsupport.WriteWAV(f.t, outputPath, sectors*accuraterip.SectorSamples, audioPattern(0))
	return nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeFlacEncoder writes placeholder output in place of real FLAC frames.
type fakeFlacEncoder struct {
	mu       sync.Mutex
	requests []flacenc.Request
}

func (f *fakeFlacEncoder) Encode(ctx context.Context, req flacenc.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return writePlaceholderFlac(req.OutputPath, req.InputPath)
}

func (f *fakeFlacEncoder) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func writePlaceholderFlac(outputPath, inputPath string) error {
	return os.WriteFile(outputPath, []byte("flac:"+filepath.Base(inputPath)), 0o644)
}
