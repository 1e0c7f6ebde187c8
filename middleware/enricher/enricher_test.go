package enricher

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sweetpotato0/selfrag/middleware"
)

func TestContextEnricher(t *testing.T) {
	t.Run("enriches context metadata", func(t *testing.T) {
		m := NewContextEnricher(func(ctx *middleware.Context) error {
			ctx.Metadata["stage"] = "answer"
			return nil
		})
		ctx := &middleware.Context{}

		err := m.Execute(ctx, func(c *middleware.Context) error {
			if c.Metadata["stage"] != "answer" {
				t.Errorf("expected metadata before next, got %v", c.Metadata)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("enricher error stops execution", func(t *testing.T) {
		boom := errors.New("enrich failed")
		m := NewContextEnricher(func(*middleware.Context) error { return boom })

		called := false
		err := m.Execute(middleware.NewContext(context.Background(), "x"), func(*middleware.Context) error {
			called = true
			return nil
		})
		if !errors.Is(err, boom) || called {
			t.Errorf("expected enricher error and no next call, got %v, called=%t", err, called)
		}
	})
}

func TestRequestID(t *testing.T) {
	m := NewRequestID()
	seen := map[string]bool{}
	for range 3 {
		ctx := middleware.NewContext(context.Background(), "x")
		if err := m.Execute(ctx, func(*middleware.Context) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		id, ok := ctx.Metadata[middleware.RequestIDKey].(string)
		if !ok {
			t.Fatal("expected request id")
		}
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("request id is not a uuid: %q", id)
		}
		if seen[id] {
			t.Errorf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}
