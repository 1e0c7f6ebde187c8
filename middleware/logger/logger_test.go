package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sweetpotato0/selfrag/middleware"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRequestLogger(t *testing.T) {
	t.Run("logs request and response sizes", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewRequestLogger(newTestLogger(&buf))
		ctx := middleware.NewContext(context.Background(), "hello")
		ctx.Metadata[middleware.RequestIDKey] = "req-1"

		err := m.Execute(ctx, func(c *middleware.Context) error {
			c.Response = "world!"
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"generation started", "prompt_chars=5", "request_id=req-1", "generation completed", "response_chars=6"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in log output:\n%s", want, out)
			}
		}
	})

	t.Run("logs failures and returns the error", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewRequestLogger(newTestLogger(&buf))
		boom := errors.New("boom")

		err := m.Execute(middleware.NewContext(context.Background(), "x"), func(*middleware.Context) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if !strings.Contains(buf.String(), "generation failed") {
			t.Errorf("expected failure log, got:\n%s", buf.String())
		}
	})

	t.Run("has a name", func(t *testing.T) {
		if NewRequestLogger(nil).Name() != "RequestLogger" {
			t.Error("unexpected name")
		}
	})
}
