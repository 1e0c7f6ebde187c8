package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestInitDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disable: true})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitStdoutExporterWritesSpans(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{ServiceName: "selfrag-test", Output: &buf})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	_, span := Tracer().Start(ctx, "unit")
	End(span, errors.New("boom"))
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"Name": "unit"`)) {
		t.Fatalf("expected exported span, got %s", buf.String())
	}
}

func TestEndNilSpan(t *testing.T) {
	End(nil, errors.New("ignored"))
}
