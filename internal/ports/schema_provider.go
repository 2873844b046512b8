package ports

import (
	"context"

	"github.com/emiliopalmerini/mpylon/internal/domain"
)

// SchemaProvider resolves the schema of a subscription. An empty
// subscription selects the default schema.
type SchemaProvider interface {
	GetSchema(ctx context.Context, subscription string) (Schema, error)
}

// Schema looks up target definitions visible to a caller.
type Schema interface {
	// FindObjectByTarget returns the object for target, or false when the
	// target is unknown or not permitted.
	FindObjectByTarget(target string, permissions []string) (*domain.SchemaObject, bool)
}
