package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"riptide/internal/config"
	"riptide/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRipCompleted, notifications.Payload{"discTitle": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "disc detected",
			event: notifications.EventDiscDetected,
			payload: notifications.Payload{
				"discTitle": "Mystery Disc",
				"device":    "/dev/sr0",
			},
			expectTitle:   "Riptide - Disc Detected",
			expectMessage: "Disc detected: Mystery Disc (/dev/sr0)",
			expectTags:    "riptide,disc,detected",
		},
		{
			name:  "identification completed",
			event: notifications.EventIdentificationCompleted,
			payload: notifications.Payload{
				"title":  "The Examples - Greatest Hits",
				"tracks": 12,
			},
			expectTitle:   "Riptide - Identified",
			expectMessage: "Identified: The Examples - Greatest Hits (12 tracks)",
			expectTags:    "riptide,identify,completed",
		},
		{
			name:  "rip completed",
			event: notifications.EventRipCompleted,
			payload: notifications.Payload{
				"discTitle": "Greatest Hits",
				"verified":  11,
				"total":     12,
			},
			expectTitle:   "Riptide - Rip Complete",
			expectMessage: "Rip complete: Greatest Hits (11/12 tracks verified)",
			expectTags:    "riptide,rip,completed",
		},
		{
			name:  "verification with mismatches raises priority",
			event: notifications.EventVerificationCompleted,
			payload: notifications.Payload{
				"title":    "Greatest Hits",
				"verified": 10,
				"total":    12,
			},
			expectTitle:    "Riptide - Verification",
			expectMessage:  "Verified 10 of 12 tracks: Greatest Hits",
			expectTags:     "riptide,verify,completed",
			expectPriority: "high",
		},
		{
			name:  "processing completed",
			event: notifications.EventProcessingCompleted,
			payload: notifications.Payload{
				"title":     "The Examples - Greatest Hits",
				"finalPath": "The Examples - Greatest Hits (1997)",
			},
			expectTitle:    "Riptide - Complete",
			expectMessage:  "Added to library: The Examples - Greatest Hits\nPath: The Examples - Greatest Hits (1997)",
			expectTags:     "riptide,library,added",
			expectPriority: "high",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "ripping (item #3)",
				"error":   errors.New("failed to read disc"),
			},
			expectTitle:    "Riptide - Error",
			expectMessage:  "Error with ripping (item #3): failed to read disc",
			expectTags:     "riptide,error,alert",
			expectPriority: "high",
		},
		{
			name:  "queue completed with failures",
			event: notifications.EventQueueCompleted,
			payload: notifications.Payload{
				"processed": 3,
				"failed":    1,
				"duration":  90 * time.Second,
			},
			expectTitle:   "Riptide - Queue Complete (with errors)",
			expectMessage: "Queue processing complete: 3 succeeded, 1 failed in 1m30s",
			expectTags:    "riptide,queue,completed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled category: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Rip = false
	cfg.Notifications.Verification = false
	cfg.Notifications.Queue = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	disabled := []notifications.Event{
		notifications.EventDiscDetected,
		notifications.EventRipStarted,
		notifications.EventRipCompleted,
		notifications.EventVerificationCompleted,
		notifications.EventReviewRequired,
		notifications.EventQueueStarted,
		notifications.EventQueueCompleted,
		notifications.EventError,
	}

	for _, event := range disabled {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
