package ports

import "context"

// ResultStorage keeps the serialized results of an analyze run, keyed by run ID.
type ResultStorage interface {
	Store(ctx context.Context, runID string, data []byte) (storedPath string, err error)
	Get(ctx context.Context, runID string) ([]byte, error)
	Delete(ctx context.Context, runID string) error
	Exists(ctx context.Context, runID string) (bool, error)
}
