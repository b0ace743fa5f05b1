package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerComponents(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	l.Info("request served", FieldStatusCode, 200)
	l.WithComponent(ComponentLedger).Info("transaction added")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "status_code=200") {
		t.Fatalf("missing http fields: %s", out)
	}
	if !strings.Contains(out, "component=ledger") {
		t.Fatalf("missing ledger component: %s", out)
	}
	if strings.Count(out, "component=") != 2 {
		t.Fatalf("component should be logged once per line: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line logged at info level")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentWorker, Format: "json", Output: &buf})
	l.With(FieldRequestID, "abc").Debug("job")
	if !strings.Contains(buf.String(), `"request_id":"abc"`) || !strings.Contains(buf.String(), `"component":"worker"`) {
		t.Fatalf("unexpected json output: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := New(DefaultConfig())
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("logger not found in context")
	}
	if got := FromContext(context.Background()); got == nil || got.Component() != ComponentApp {
		t.Fatalf("fallback logger = %+v", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warning": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
}
