package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be suppressed at warn level, got %q", buf.String())
	}

	logger.Warn("emitted", "reason", "test")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "emitted" {
		t.Fatalf("expected msg emitted, got %v", record["msg"])
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "verbose")

	logger.Debug("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be suppressed, got %q", buf.String())
	}
	logger.Info("emitted")
	if buf.Len() == 0 {
		t.Fatal("expected info to be emitted")
	}
}

func TestContextRoundTrip(t *testing.T) {
	base := slog.Default()
	ctx := ContextWithLogger(context.Background(), base)
	if got := FromContext(ctx); got != base {
		t.Fatal("expected the attached logger back")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatal("expected nil for a bare context")
	}
}
