package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentLedger)
	l.Info("expense recorded", FieldAmount, "12.50")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "amount=12.50") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentStorage).Warn("corrupt snapshot")
	if !strings.Contains(buf.String(), "component=storage") {
		t.Fatalf("expected storage component, got %s", buf.String())
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentIdentity)
	fields := NewFields().
		WithTransition("switch", "a", "b").
		WithOperation(OpCheck).
		WithError(errors.New("boom"))
	l.Fields(context.Background(), slog.LevelInfo, "identity changed", fields)

	out := buf.String()
	for _, want := range []string{"transition=switch", "from=a", "to=b", "operation=check", "error=boom", "component=identity"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
