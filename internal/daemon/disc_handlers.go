package daemon

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"riptide/internal/logging"
	"riptide/internal/notifications"
	"riptide/internal/queue"
)

type queueProcessor interface {
	// Process routes a detected disc into the queue and returns the id of
	// the item representing it.
	Process(ctx context.Context, info discInfo, fingerprint string, logger *slog.Logger) (int64, error)
}

type discErrorNotifier interface {
	DetectionFailed(ctx context.Context, device string, err error, logger *slog.Logger)
}

type queueStoreProcessor struct {
	store *queue.Store
}

func newQueueStoreProcessor(store *queue.Store) *queueStoreProcessor {
	if store == nil {
		return nil
	}
	return &queueStoreProcessor{store: store}
}

func (p *queueStoreProcessor) Process(ctx context.Context, info discInfo, fingerprint string, logger *slog.Logger) (int64, error) {
	if p == nil || p.store == nil {
		return 0, fmt.Errorf("queue processor unavailable")
	}

	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return 0, fmt.Errorf("disc fingerprint is required")
	}

	existing, err := p.store.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return 0, fmt.Errorf("lookup existing disc: %w", err)
	}

	if existing != nil {
		return p.handleExisting(ctx, info, existing, fingerprint, logger)
	}

	return p.enqueueNew(ctx, info, fingerprint, logger)
}

func (p *queueStoreProcessor) handleExisting(ctx context.Context, info discInfo, existing *queue.Item, fingerprint string, logger *slog.Logger) (int64, error) {
	title := strings.TrimSpace(info.Title)
	updated := false

	if existing.DiscFingerprint != fingerprint {
		existing.DiscFingerprint = fingerprint
		updated = true
	}
	if title != "" && shouldRefreshDiscTitle(existing.DiscTitle) && title != strings.TrimSpace(existing.DiscTitle) {
		existing.DiscTitle = title
		updated = true
	}

	if existing.Status == queue.StatusCompleted {
		if updated {
			if err := p.store.Update(ctx, existing); err != nil && logger != nil {
				logger.Warn("failed to update completed item",
					logging.Error(err),
					logging.Int64(logging.FieldItemID, existing.ID),
					logging.String(logging.FieldEventType, "queue_update_failed"),
					logging.String(logging.FieldImpact, "disc title refresh was not saved"),
					logging.String(logging.FieldErrorHint, "Check queue database availability and disk health"))
			}
		}
		if logger != nil {
			logger.Debug(
				"disc already completed",
				logging.Int64(logging.FieldItemID, existing.ID),
				logging.String("status", string(existing.Status)),
			)
		}
		return existing.ID, nil
	}

	if existing.IsInWorkflow() {
		if updated {
			if err := p.store.Update(ctx, existing); err != nil && logger != nil {
				logger.Warn("failed to update in-flight item",
					logging.Error(err),
					logging.Int64(logging.FieldItemID, existing.ID),
					logging.String(logging.FieldEventType, "queue_update_failed"),
					logging.String(logging.FieldImpact, "disc title refresh was not saved"),
					logging.String(logging.FieldErrorHint, "Check queue database availability and disk health"))
			}
		}
		if logger != nil {
			logger.Debug(
				"disc already in workflow",
				logging.Int64(logging.FieldItemID, existing.ID),
				logging.String("status", string(existing.Status)),
				logging.String("progress_stage", strings.TrimSpace(existing.ProgressStage)),
			)
		}
		return existing.ID, nil
	}

	existing.Status = queue.StatusPending
	existing.ErrorMessage = ""
	existing.ProgressStage = "Awaiting identification"
	existing.ProgressPercent = 0
	existing.ProgressMessage = ""
	existing.NeedsReview = false
	existing.ReviewReason = ""
	existing.DiscFingerprint = fingerprint
	existing.DevicePath = info.Device

	if err := p.store.Update(ctx, existing); err != nil {
		return 0, fmt.Errorf("failed to reset existing item: %w", err)
	}

	if logger != nil {
		logger.Debug(
			"reset existing disc for processing",
			logging.Int64(logging.FieldItemID, existing.ID),
			logging.String("disc_title", strings.TrimSpace(existing.DiscTitle)),
		)
	}
	return existing.ID, nil
}

// shouldRefreshDiscTitle reports whether a stored title is a placeholder
// that may be replaced by a fresh detection.
func shouldRefreshDiscTitle(current string) bool {
	trimmed := strings.TrimSpace(current)
	if trimmed == "" {
		return true
	}
	return trimmed == "Unknown Disc"
}

func (p *queueStoreProcessor) enqueueNew(ctx context.Context, info discInfo, fingerprint string, logger *slog.Logger) (int64, error) {
	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = "Unknown Disc"
	}

	item, err := p.store.NewDisc(ctx, title, info.Device)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue disc: %w", err)
	}

	item.DiscFingerprint = fingerprint
	if err := p.store.Update(ctx, item); err != nil {
		return 0, fmt.Errorf("failed to record disc fingerprint: %w", err)
	}

	if logger != nil {
		logger.Debug(
			"queued new disc",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("disc_title", strings.TrimSpace(item.DiscTitle)),
			logging.String("fingerprint", fingerprint),
		)
	}
	return item.ID, nil
}

type notifierAdapter struct {
	service notifications.Service
}

func newNotifierAdapter(service notifications.Service) *notifierAdapter {
	if service == nil {
		return nil
	}
	return &notifierAdapter{service: service}
}

func (n *notifierAdapter) DetectionFailed(ctx context.Context, device string, err error, logger *slog.Logger) {
	if n == nil || n.service == nil {
		return
	}
	if notifyErr := n.service.Publish(ctx, notifications.EventError, notifications.Payload{
		"error":   err,
		"context": device,
	}); notifyErr != nil {
		if logger != nil {
			logger.Warn("failed to send disc detection error notification",
				logging.Error(notifyErr),
				logging.String(logging.FieldEventType, "notification_failed"),
				logging.String(logging.FieldImpact, "disc detection error notification was not delivered"),
				logging.String(logging.FieldErrorHint, "Check ntfy configuration and connectivity"))
		}
	}
}
