package telemetry

import (
	"context"
	"testing"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"disabled", Options{ServiceName: "eyesee", Enabled: false, Endpoint: "http://localhost:4318"}},
		{"no endpoint", Options{ServiceName: "eyesee", Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if shutdown == nil {
				t.Fatal("expected shutdown func")
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}
