package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"riptide/internal/accuraterip"
	"riptide/internal/config"
	"riptide/internal/disc"
	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/queue"
	"riptide/internal/services/cdparanoia"
	"riptide/internal/toc"
)

// discInfo carries what the monitor learns from a TOC read before the
// identification stage resolves real album metadata.
type discInfo struct {
	Device     string
	Title      string
	TrackCount int
}

// DiscDetectedResult reports the outcome of an on-demand detection pass.
type DiscDetectedResult struct {
	Handled bool
	Message string
	ItemID  int64
}

type statusFunc func(device string) (disc.DriveStatus, error)

type discIdentifier interface {
	Identify(ctx context.Context, device string) (discInfo, string, error)
}

type discMonitor struct {
	cfg    *config.Config
	logger *slog.Logger

	queueHandler  queueProcessor
	errorNotifier discErrorNotifier
	identifier    discIdentifier

	device          string
	identifyTimeout time.Duration
	pollInterval    time.Duration
	status          statusFunc
	isPaused        func() bool

	mu          sync.Mutex
	running     bool
	discPresent bool
	processing  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// tocDiscIdentifier derives the disc fingerprint from a cd-paranoia TOC read.
type tocDiscIdentifier struct {
	cfg *config.Config
}

func (t tocDiscIdentifier) Identify(ctx context.Context, device string) (discInfo, string, error) {
	reader, err := cdparanoia.New(t.cfg.CdparanoiaBinary(), device, t.cfg.Drive.SampleOffset, cdparanoia.Timeouts{
		TOC:       t.cfg.Drive.TOCTimeout,
		KillGrace: t.cfg.Ripping.KillGraceSeconds,
	})
	if err != nil {
		return discInfo{}, "", fmt.Errorf("initialize toc reader: %w", err)
	}
	contents, err := reader.ReadTOC(ctx)
	if err != nil {
		return discInfo{}, "", fmt.Errorf("read table of contents: %w", err)
	}
	contents, err = toc.Validate(contents)
	if err != nil {
		return discInfo{}, "", fmt.Errorf("validate table of contents: %w", err)
	}

	offsets, leadOut := contents.Offsets()
	id := accuraterip.CalculateDiscID(offsets, leadOut)
	info := queue.NewDiscInfo(device, contents, id)

	trackCount := contents.TrackCount()
	return discInfo{
		Device:     device,
		Title:      fmt.Sprintf("Audio CD (%d tracks)", trackCount),
		TrackCount: trackCount,
	}, info.Fingerprint(), nil
}

func newDiscMonitor(cfg *config.Config, store *queue.Store, logger *slog.Logger, isPaused func() bool) *discMonitor {
	if cfg == nil || store == nil {
		return nil
	}

	device := strings.TrimSpace(cfg.Drive.Device)
	if device == "" {
		return nil
	}

	poll := time.Duration(cfg.Workflow.DiscPollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}

	identifyTimeout := time.Duration(cfg.Drive.TOCTimeout) * time.Second
	if identifyTimeout <= 0 {
		identifyTimeout = 2 * time.Minute
	}

	return &discMonitor{
		cfg:             cfg,
		logger:          logging.NewComponentLogger(logger, "disc-monitor"),
		queueHandler:    newQueueStoreProcessor(store),
		errorNotifier:   newNotifierAdapter(notifications.NewService(cfg)),
		identifier:      tocDiscIdentifier{cfg: cfg},
		device:          device,
		identifyTimeout: identifyTimeout,
		pollInterval:    poll,
		status:          disc.CheckDriveStatus,
		isPaused:        isPaused,
	}
}

func (m *discMonitor) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("disc monitor unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("disc monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop()
	return nil
}

func (m *discMonitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *discMonitor) loop() {
	defer m.wg.Done()

	m.poll()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *discMonitor) poll() {
	ctx := m.ctx
	if ctx == nil {
		return
	}

	if m.isPaused != nil && m.isPaused() {
		return
	}

	// Skip detection while a disc is tracked or being ripped. Probing the
	// device during an active cd-paranoia extraction causes read errors
	// from concurrent access.
	m.mu.Lock()
	if m.discPresent || m.processing {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	status, err := m.status(m.device)
	if err != nil {
		m.log().Warn("drive status check failed; will retry",
			logging.Error(err),
			logging.String(logging.FieldEventType, "disc_detect_failed"),
			logging.String(logging.FieldErrorHint, "check optical drive path and permissions"),
		)
		return
	}

	if status != disc.DriveStatusDiscOK {
		m.mu.Lock()
		m.discPresent = false
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.discPresent || m.processing {
		// Race: another goroutine beat us to it
		m.mu.Unlock()
		return
	}
	m.discPresent = true
	m.processing = true
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		result := m.handleDetectedDisc(ctx, m.device)

		m.mu.Lock()
		if result == nil || !result.Handled {
			m.discPresent = false
		}
		m.processing = false
		m.mu.Unlock()
	}()
}

// DetectNow runs a detection pass for the given device immediately, outside
// the poll schedule. Netlink events use it to react to insertions without
// waiting for the next tick.
func (m *discMonitor) DetectNow(ctx context.Context, device string) (*DiscDetectedResult, error) {
	if m == nil {
		return nil, errors.New("disc monitor unavailable")
	}
	device = strings.TrimSpace(device)
	if device == "" {
		device = m.device
	}

	m.mu.Lock()
	if m.processing {
		m.mu.Unlock()
		return &DiscDetectedResult{Handled: false, Message: "detection already in progress"}, nil
	}
	m.processing = true
	m.mu.Unlock()

	result := m.handleDetectedDisc(ctx, device)

	m.mu.Lock()
	m.discPresent = result != nil && result.Handled
	m.processing = false
	m.mu.Unlock()

	if result == nil {
		return nil, errors.New("detection produced no result")
	}
	return result, nil
}

func (m *discMonitor) handleDetectedDisc(ctx context.Context, device string) *DiscDetectedResult {
	logger := logging.WithContext(ctx, m.log()).With(
		logging.String(logging.FieldDevice, device),
	)
	logger.Info("detected disc",
		logging.String(logging.FieldEventType, "disc_detected"),
	)

	identifyCtx := ctx
	var cancel context.CancelFunc
	if m.identifyTimeout > 0 {
		identifyCtx, cancel = context.WithTimeout(ctx, m.identifyTimeout)
		defer cancel()
	}

	// The fingerprint must come from the same TOC read the CLI uses so
	// manual and automatic detection agree on disc identity.
	logger.Debug("reading table of contents for fingerprint")
	info, fingerprint, err := m.identifier.Identify(identifyCtx, device)
	if err != nil {
		logger.Error("disc identification failed; disc not queued",
			logging.Error(err),
			logging.String(logging.FieldEventType, "disc_fingerprint_failed"),
			logging.String(logging.FieldErrorHint, "verify the disc is readable and cd-paranoia is installed"),
		)
		if m.errorNotifier != nil {
			m.errorNotifier.DetectionFailed(ctx, device, err, logger)
		}
		return &DiscDetectedResult{Handled: false, Message: err.Error()}
	}
	logger.Debug("computed fingerprint",
		logging.String("fingerprint", fingerprint),
		logging.Int("track_count", info.TrackCount),
	)

	queueHandler := m.queueHandler
	if queueHandler == nil {
		logger.Error("queue handler unavailable; disc not queued",
			logging.String(logging.FieldEventType, "queue_handler_unavailable"),
			logging.String(logging.FieldErrorHint, "restart the daemon or check queue database initialization"),
		)
		return &DiscDetectedResult{Handled: false, Message: "queue handler unavailable"}
	}

	itemID, err := queueHandler.Process(ctx, info, fingerprint, logger)
	if err != nil {
		logger.Error("queue processing failed; disc not queued",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_processing_failed"),
			logging.String(logging.FieldErrorHint, "check queue database health and daemon logs"),
		)
		return &DiscDetectedResult{Handled: false, Message: err.Error()}
	}
	return &DiscDetectedResult{
		Handled: true,
		Message: fmt.Sprintf("disc queued as item %d", itemID),
		ItemID:  itemID,
	}
}

func (m *discMonitor) log() *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	return m.logger
}
