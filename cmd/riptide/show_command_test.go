package main

import (
	"os"
	"strings"
	"testing"
)

func TestShowLines(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := env.logPath
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"show", "--lines", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("show --lines: %v", err)
	}
	requireContains(t, out, "second")
	requireContains(t, out, "third")
	if strings.Contains(out, "first") {
		t.Fatalf("expected only the last two lines, got:\n%s", out)
	}
}

func TestShowEmptyLog(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.WriteFile(env.logPath, nil, 0o644); err != nil {
		t.Fatalf("truncate log: %v", err)
	}

	out, _, err := runCLI(t, []string{"show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "No log entries available")
}
