package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"riptide/internal/config"
	"riptide/internal/deps"
	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/preflight"
	"riptide/internal/queue"
	"riptide/internal/workflow"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution via a lock file under the log directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	logPath  string

	lockPath string
	lock     *flock.Flock

	discMonitor    *discMonitor
	netlinkMonitor *netlinkMonitor
	apiServer      *apiServer

	logStream  *logging.StreamHub
	logArchive *logging.EventArchive

	running    atomic.Bool
	discPaused atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc

	pid int
}

// Status represents daemon runtime information.
type Status struct {
	Running           bool
	PID               int
	Workflow          workflow.StatusSummary
	QueueDBPath       string
	LockFilePath      string
	LogPath           string
	Dependencies      []deps.Status
	DiscPaused        bool
	NetlinkMonitoring bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, logPath string, hub *logging.StreamHub) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "riptide.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		workflow:  wf,
		logPath:   logPath,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		logStream: hub,
		pid:       currentPID(),
	}
	if cfg.Workflow.DiscMonitor {
		d.discMonitor = newDiscMonitor(cfg, store, logger, d.discPaused.Load)
		d.netlinkMonitor = newNetlinkMonitor(cfg, logger, d.handleNetlinkDetection, d.discPaused.Load)
	}
	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiServer = apiSrv
	return d, nil
}

// AttachLogArchive wires the on-disk event archive used by log queries that
// fall behind the in-memory stream buffer.
func (d *Daemon) AttachLogArchive(archive *logging.EventArchive) {
	d.logArchive = archive
}

// Start launches the workflow manager, disc monitors, and API server, and
// acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another riptide daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.discMonitor != nil {
		if err := d.discMonitor.Start(d.ctx); err != nil {
			d.logger.Warn("disc monitor failed to start",
				logging.Error(err),
				logging.String(logging.FieldEventType, "disc_monitor_start_failed"),
				logging.String(logging.FieldImpact, "discs must be queued manually"),
				logging.String(logging.FieldErrorHint, "check drive configuration and restart the daemon"))
		}
	}
	if d.netlinkMonitor != nil {
		if err := d.netlinkMonitor.Start(d.ctx); err != nil {
			d.logger.Warn("netlink monitor failed to start", logging.Error(err))
		}
	}
	if d.apiServer != nil {
		if err := d.apiServer.start(d.ctx); err != nil {
			d.logger.Warn("api server failed to start",
				logging.Error(err),
				logging.String(logging.FieldEventType, "api_start_failed"),
				logging.String(logging.FieldImpact, "HTTP status endpoints unavailable"),
				logging.String(logging.FieldErrorHint, "check api_bind address availability"))
		}
	}

	d.running.Store(true)
	d.logger.Info("riptide daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.netlinkMonitor != nil {
		d.netlinkMonitor.Stop()
	}
	if d.discMonitor != nil {
		d.discMonitor.Stop()
	}
	if d.apiServer != nil {
		d.apiServer.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("riptide daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetQueueItem returns a single queue item by id, or nil when absent.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	if d.store == nil {
		return nil, errors.New("queue store unavailable")
	}
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight items back to pending for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// StopQueueItems returns the named items to pending with a user stop reason.
// Items already in a terminal state are left untouched.
func (d *Daemon) StopQueueItems(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	var stopped int64
	for _, id := range ids {
		item, err := d.store.GetByID(ctx, id)
		if err != nil {
			return stopped, fmt.Errorf("load queue item %d: %w", id, err)
		}
		if item == nil {
			continue
		}
		if item.Status == queue.StatusCompleted || item.Status == queue.StatusFailed {
			continue
		}
		item.SetStopped(queue.UserStopReason)
		if err := d.store.Update(ctx, item); err != nil {
			return stopped, fmt.Errorf("stop queue item %d: %w", id, err)
		}
		stopped++
	}
	return stopped, nil
}

// RemoveQueueItems deletes the named items from the queue.
func (d *Daemon) RemoveQueueItems(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("queue store unavailable")
	}
	var removed int64
	for _, id := range ids {
		ok, err := d.store.Remove(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("remove queue item %d: %w", id, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	if d.store == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// PauseDiscMonitoring suspends automatic disc detection. Ripping in progress
// is unaffected; new discs are ignored until ResumeDiscMonitoring.
func (d *Daemon) PauseDiscMonitoring() {
	d.discPaused.Store(true)
	d.logger.Info("disc detection paused",
		logging.String(logging.FieldEventType, "disc_monitor_paused"))
}

// ResumeDiscMonitoring re-enables automatic disc detection.
func (d *Daemon) ResumeDiscMonitoring() {
	d.discPaused.Store(false)
	d.logger.Info("disc detection resumed",
		logging.String(logging.FieldEventType, "disc_monitor_resumed"))
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// LogStream returns the in-memory log event buffer, if configured.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logStream
}

// LogArchive returns the on-disk log event archive, if configured.
func (d *Daemon) LogArchive() *logging.EventArchive {
	return d.logArchive
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:           d.running.Load(),
		PID:               d.pid,
		Workflow:          summary,
		QueueDBPath:       filepath.Join(d.cfg.Paths.LogDir, "queue.db"),
		LockFilePath:      d.lockPath,
		LogPath:           d.logPath,
		Dependencies:      preflight.CheckSystemDeps(ctx, d.cfg),
		DiscPaused:        d.discPaused.Load(),
		NetlinkMonitoring: d.netlinkMonitor.Running(),
	}
}

func currentPID() int {
	return os.Getpid()
}

// handleNetlinkDetection runs an immediate detection pass for the device
// named in a udev event.
func (d *Daemon) handleNetlinkDetection(ctx context.Context, device string) (*DiscDetectedResult, error) {
	if d.discMonitor == nil {
		return nil, errors.New("disc monitor unavailable")
	}
	return d.discMonitor.DetectNow(ctx, device)
}
