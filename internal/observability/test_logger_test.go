package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	ctx := WithRequestID(context.Background(), "req-42")
	LoggerFromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Fatalf("log line missing request_id: %s", buf.String())
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("RequestID() on empty context should be empty")
	}
}

func TestSetLevel(t *testing.T) {
	prev := Level()
	t.Cleanup(func() { level.Set(prev) })

	if !SetLevel("debug") || Level() != slog.LevelDebug {
		t.Fatalf("SetLevel(debug) did not apply")
	}
	if SetLevel("chatty") {
		t.Fatalf("SetLevel(chatty) should be rejected")
	}
	if Level() != slog.LevelDebug {
		t.Fatalf("rejected level must not change the current level")
	}
}
