package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	tests := []struct {
		name     string
		endpoint string
		enabled  bool
	}{
		{"no endpoint", "", true},
		{"disabled", "http://localhost:4318", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), tt.endpoint, tt.enabled)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Errorf("noop shutdown returned %v", err)
			}
			if otel.GetTracerProvider() != before {
				t.Error("global tracer provider should not change when tracing is off")
			}
		})
	}
}

func TestSetup_Enabled(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Setup(context.Background(), "http://127.0.0.1:4318", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if otel.GetTracerProvider() == before {
		t.Error("expected a tracer provider to be installed")
	}
	_ = shutdown(context.Background())
}
