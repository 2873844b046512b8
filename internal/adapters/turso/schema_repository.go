package turso

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/infrastructure/database"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// SchemaRepository keeps per-subscription schema targets in the
// schema_targets table. The empty subscription holds the default schema.
type SchemaRepository struct {
	db *sql.DB
}

func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// Import replaces every target stored for subscription with objects.
func (r *SchemaRepository) Import(ctx context.Context, subscription string, objects []domain.SchemaObject) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_targets WHERE subscription = ?`, subscription); err != nil {
		return fmt.Errorf("failed to clear schema targets: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, o := range objects {
		if o.Target == "" {
			return fmt.Errorf("schema object without target: %w", domain.ErrInvalidParameters)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schema_targets (subscription, target, cardinality, label, perms, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(subscription, target) DO UPDATE SET
				cardinality = excluded.cardinality,
				label = excluded.label,
				perms = excluded.perms,
				updated_at = excluded.updated_at
		`, subscription, o.Target, nullInt(o.Cardinality), nullString(o.Label), strings.Join(o.Perms, ","), now)
		if err != nil {
			return fmt.Errorf("failed to store target %q: %w", o.Target, err)
		}
	}

	return tx.Commit()
}

// GetSchema loads the targets of subscription, falling back to the default
// schema when the subscription has none of its own.
func (r *SchemaRepository) GetSchema(ctx context.Context, subscription string) (ports.Schema, error) {
	objects, err := database.WithRetry(ctx, readRetries, func() ([]domain.SchemaObject, error) {
		return r.list(ctx, subscription)
	})
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 && subscription != "" {
		objects, err = database.WithRetry(ctx, readRetries, func() ([]domain.SchemaObject, error) {
			return r.list(ctx, "")
		})
		if err != nil {
			return nil, err
		}
	}
	return domain.NewStaticSchema(objects...), nil
}

func (r *SchemaRepository) list(ctx context.Context, subscription string) ([]domain.SchemaObject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT target, cardinality, label, perms
		FROM schema_targets
		WHERE subscription = ?
		ORDER BY target
	`, subscription)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema targets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var objects []domain.SchemaObject
	for rows.Next() {
		var (
			o           domain.SchemaObject
			cardinality sql.NullInt64
			label       sql.NullString
			perms       string
		)
		if err := rows.Scan(&o.Target, &cardinality, &label, &perms); err != nil {
			return nil, fmt.Errorf("failed to scan schema target: %w", err)
		}
		if cardinality.Valid {
			c := int(cardinality.Int64)
			o.Cardinality = &c
		}
		if label.Valid {
			o.Label = &label.String
		}
		if perms != "" {
			o.Perms = strings.Split(perms, ",")
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
