package ports

import (
	"context"
	"time"

	"github.com/emiliopalmerini/mpylon/internal/domain"
)

// RequestObserver records the outcome of analyze requests to an external
// observability system.
type RequestObserver interface {
	// ObserveRequest is called once per request after its outcome is collected.
	ObserveRequest(ctx context.Context, o RequestOutcome)
	// Close flushes any pending data.
	Close(ctx context.Context) error
}

// RequestOutcome describes a single completed analyze request.
type RequestOutcome struct {
	RequestID    string
	Hash         string
	AnalysisType domain.AnalysisType
	Target       string
	StatusCode   int
	Duration     time.Duration
	Failed       bool
	Error        string
}

// MultiObserver fans an outcome out to several observers.
type MultiObserver []RequestObserver

func (m MultiObserver) ObserveRequest(ctx context.Context, o RequestOutcome) {
	for _, obs := range m {
		obs.ObserveRequest(ctx, o)
	}
}

func (m MultiObserver) Close(ctx context.Context) error {
	var first error
	for _, obs := range m {
		if err := obs.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
