package ports

import (
	"context"

	"github.com/emiliopalmerini/mpylon/internal/domain"
)

type DispatchLogRepository interface {
	Record(ctx context.Context, records []*domain.DispatchRecord) error
	Recent(ctx context.Context, limit int) ([]*domain.DispatchRecord, error)
}

type SchemaRepository interface {
	SchemaProvider
	Import(ctx context.Context, subscription string, objects []domain.SchemaObject) error
}
