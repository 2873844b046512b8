package otel

import (
	"context"

	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// NoOpObserver is a request observer that does nothing.
type NoOpObserver struct{}

// NewNoOpObserver creates a new no-op observer for graceful degradation.
func NewNoOpObserver() *NoOpObserver {
	return &NoOpObserver{}
}

func (o *NoOpObserver) ObserveRequest(ctx context.Context, out ports.RequestOutcome) {}

func (o *NoOpObserver) Close(ctx context.Context) error {
	return nil
}
