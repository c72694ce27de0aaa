package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFanoutHandlerDuplicatesRecords(t *testing.T) {
	var first, second bytes.Buffer
	handler := newFanoutHandler(
		slog.NewTextHandler(&first, nil),
		slog.NewTextHandler(&second, nil),
	)

	logger := slog.New(handler)
	logger.Info("fan out", slog.String("k", "v"))

	for name, buf := range map[string]*bytes.Buffer{"first": &first, "second": &second} {
		if !strings.Contains(buf.String(), "fan out") {
			t.Errorf("expected %s handler to receive record, got %q", name, buf.String())
		}
		if !strings.Contains(buf.String(), "k=v") {
			t.Errorf("expected %s handler to receive attrs, got %q", name, buf.String())
		}
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var debugOut, warnOut bytes.Buffer
	handler := newFanoutHandler(
		slog.NewTextHandler(&debugOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnOut, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)

	logger := slog.New(handler)
	logger.Info("info only")
	logger.Warn("warn both")

	if !strings.Contains(debugOut.String(), "info only") {
		t.Errorf("expected debug handler to receive info record, got %q", debugOut.String())
	}
	if strings.Contains(warnOut.String(), "info only") {
		t.Errorf("expected warn handler to skip info record, got %q", warnOut.String())
	}
	if !strings.Contains(warnOut.String(), "warn both") {
		t.Errorf("expected warn handler to receive warn record, got %q", warnOut.String())
	}
}

func TestFanoutHandlerSkipsNilHandlers(t *testing.T) {
	var buf bytes.Buffer
	handler := newFanoutHandler(nil, slog.NewTextHandler(&buf, nil), nil)

	slog.New(handler).Info("single survivor")

	if !strings.Contains(buf.String(), "single survivor") {
		t.Fatalf("expected surviving handler output, got %q", buf.String())
	}
}

func TestFanoutHandlerEmptyBecomesNoop(t *testing.T) {
	handler := newFanoutHandler(nil, nil)
	if _, ok := handler.(NoopHandler); !ok {
		t.Fatalf("expected NoopHandler for empty fanout, got %T", handler)
	}
}

func TestTeeLoggerIncludesBaseHandler(t *testing.T) {
	var base, extra bytes.Buffer
	baseLogger := slog.New(slog.NewTextHandler(&base, nil))

	logger := TeeLogger(baseLogger, slog.NewTextHandler(&extra, nil))
	logger.Info("tee message")

	if !strings.Contains(base.String(), "tee message") {
		t.Errorf("expected base handler output, got %q", base.String())
	}
	if !strings.Contains(extra.String(), "tee message") {
		t.Errorf("expected extra handler output, got %q", extra.String())
	}
}

func TestFanoutWithAttrsPropagates(t *testing.T) {
	var first, second bytes.Buffer
	handler := newFanoutHandler(
		slog.NewTextHandler(&first, nil),
		slog.NewTextHandler(&second, nil),
	)

	logger := slog.New(handler).With(slog.String("component", "queue"))
	logger.Info("attr fanout")

	for name, buf := range map[string]*bytes.Buffer{"first": &first, "second": &second} {
		if !strings.Contains(buf.String(), "component=queue") {
			t.Errorf("expected %s handler to carry attrs, got %q", name, buf.String())
		}
	}
}
