package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"riptide/internal/config"
)

const userAgent = "Riptide/0.1.0"

// Event identifies a workflow milestone routed to the notification sink.
type Event string

const (
	EventDiscDetected            Event = "disc_detected"
	EventIdentificationCompleted Event = "identification_completed"
	EventRipStarted              Event = "rip_started"
	EventRipCompleted            Event = "rip_completed"
	EventVerificationCompleted   Event = "verification_completed"
	EventProcessingCompleted     Event = "processing_completed"
	EventReviewRequired          Event = "review_required"
	EventQueueStarted            Event = "queue_started"
	EventQueueCompleted          Event = "queue_completed"
	EventError                   Event = "error"
	EventTest                    Event = "test"
)

// Payload carries event-specific fields consumed by the message renderers.
// Keys are documented on each Event constant's renderer below.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		rip:          cfg.Notifications.Rip,
		verification: cfg.Notifications.Verification,
		queue:        cfg.Notifications.Queue,
		errors:       cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	rip          bool
	verification bool
	queue        bool
	errors       bool
}

// Publish renders the event into an ntfy message and posts it. Events whose
// category is disabled in the config are silently dropped.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventDiscDetected, EventIdentificationCompleted, EventRipStarted,
		EventRipCompleted, EventProcessingCompleted:
		return n.rip
	case EventVerificationCompleted, EventReviewRequired:
		return n.verification
	case EventQueueStarted, EventQueueCompleted:
		return n.queue
	case EventError:
		return n.errors
	default:
		return true
	}
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventDiscDetected:
		// keys: discTitle, device
		title := payloadString(payload, "discTitle", "Unknown Disc")
		body := fmt.Sprintf("Disc detected: %s", title)
		if device := payloadString(payload, "device", ""); device != "" {
			body = fmt.Sprintf("%s (%s)", body, device)
		}
		return message{title: "Riptide - Disc Detected", body: body, tags: []string{"riptide", "disc", "detected"}}, true
	case EventIdentificationCompleted:
		// keys: title, tracks
		body := fmt.Sprintf("Identified: %s", payloadString(payload, "title", "Unknown Album"))
		if tracks := payloadInt(payload, "tracks"); tracks > 0 {
			body = fmt.Sprintf("%s (%d tracks)", body, tracks)
		}
		return message{title: "Riptide - Identified", body: body, tags: []string{"riptide", "identify", "completed"}}, true
	case EventRipStarted:
		// keys: discTitle
		return message{
			title: "Riptide - Rip Started",
			body:  fmt.Sprintf("Started ripping: %s", payloadString(payload, "discTitle", "Unknown Disc")),
			tags:  []string{"riptide", "rip", "started"},
		}, true
	case EventRipCompleted:
		// keys: discTitle, verified, total
		body := fmt.Sprintf("Rip complete: %s", payloadString(payload, "discTitle", "Unknown Disc"))
		if total := payloadInt(payload, "total"); total > 0 {
			body = fmt.Sprintf("%s (%d/%d tracks verified)", body, payloadInt(payload, "verified"), total)
		}
		return message{title: "Riptide - Rip Complete", body: body, tags: []string{"riptide", "rip", "completed"}}, true
	case EventVerificationCompleted:
		// keys: title, verified, total
		verified := payloadInt(payload, "verified")
		total := payloadInt(payload, "total")
		body := fmt.Sprintf("Verified %d of %d tracks: %s", verified, total, payloadString(payload, "title", "Unknown Album"))
		msg := message{title: "Riptide - Verification", body: body, tags: []string{"riptide", "verify", "completed"}}
		if total > 0 && verified < total {
			msg.priority = "high"
		}
		return msg, true
	case EventProcessingCompleted:
		// keys: title, finalPath
		body := fmt.Sprintf("Added to library: %s", payloadString(payload, "title", "Unknown Album"))
		if finalPath := payloadString(payload, "finalPath", ""); finalPath != "" {
			body = fmt.Sprintf("%s\nPath: %s", body, finalPath)
		}
		return message{
			title:    "Riptide - Complete",
			body:     body,
			tags:     []string{"riptide", "library", "added"},
			priority: "high",
		}, true
	case EventReviewRequired:
		// keys: label, reason
		body := fmt.Sprintf("Needs review: %s", payloadString(payload, "label", "unknown item"))
		if reason := payloadString(payload, "reason", ""); reason != "" {
			body = fmt.Sprintf("%s\n%s", body, reason)
		}
		return message{title: "Riptide - Review Required", body: body, tags: []string{"riptide", "review"}}, true
	case EventQueueStarted:
		// keys: count
		return message{
			title: "Riptide - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d items", payloadInt(payload, "count")),
			tags:  []string{"riptide", "queue", "started"},
		}, true
	case EventQueueCompleted:
		// keys: processed, failed, duration
		return renderQueueCompleted(payload), true
	case EventError:
		// keys: error, context
		return renderError(payload), true
	case EventTest:
		return message{
			title:    "Riptide - Test",
			body:     "Notification system test",
			tags:     []string{"riptide", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func renderQueueCompleted(payload Payload) message {
	processed := payloadInt(payload, "processed")
	failed := payloadInt(payload, "failed")
	duration, _ := payload["duration"].(time.Duration)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	if failed == 0 {
		return message{
			title: "Riptide - Queue Complete",
			body:  fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText),
			tags:  []string{"riptide", "queue", "completed"},
		}
	}
	return message{
		title: "Riptide - Queue Complete (with errors)",
		body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText),
		tags:  []string{"riptide", "queue", "completed"},
	}
}

func renderError(payload Payload) message {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel := payloadString(payload, "context", ""); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err, ok := payload["error"].(error); ok && err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return message{
		title:    "Riptide - Error",
		body:     builder.String(),
		tags:     []string{"riptide", "error", "alert"},
		priority: "high",
	}
}

func payloadString(payload Payload, key, fallback string) string {
	if payload == nil {
		return fallback
	}
	if value, ok := payload[key].(string); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func payloadInt(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
