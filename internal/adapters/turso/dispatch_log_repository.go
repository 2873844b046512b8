package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/infrastructure/database"
)

// createdAtLayout is fixed width so that created_at sorts as text. The
// driver hands stored timestamps back in RFC 3339 form without trailing
// zeros, so reads parse with time.RFC3339Nano.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DispatchLogRepository stores the outcome of every analyze request.
type DispatchLogRepository struct {
	db *sql.DB
}

func NewDispatchLogRepository(db *sql.DB) *DispatchLogRepository {
	return &DispatchLogRepository{db: db}
}

// Record inserts records in one transaction. Records without an ID get one.
func (r *DispatchLogRepository) Record(ctx context.Context, records []*domain.DispatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dispatch_log (id, hash, analysis_type, target, status_code, error, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.Hash, string(rec.AnalysisType), rec.Target, rec.StatusCode,
			nullString(rec.Error), rec.Duration.Milliseconds(), rec.CreatedAt.UTC().Format(createdAtLayout))
		if err != nil {
			return fmt.Errorf("failed to record dispatch %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit records, newest first.
func (r *DispatchLogRepository) Recent(ctx context.Context, limit int) ([]*domain.DispatchRecord, error) {
	return database.WithRetry(ctx, readRetries, func() ([]*domain.DispatchRecord, error) {
		return r.recent(ctx, limit)
	})
}

func (r *DispatchLogRepository) recent(ctx context.Context, limit int) ([]*domain.DispatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, hash, analysis_type, target, status_code, error, duration_ms, created_at
		FROM dispatch_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatch log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.DispatchRecord
	for rows.Next() {
		var (
			rec          domain.DispatchRecord
			analysisType string
			errMsg       sql.NullString
			durationMs   int64
			createdAt    string
		)
		if err := rows.Scan(&rec.ID, &rec.Hash, &analysisType, &rec.Target, &rec.StatusCode,
			&errMsg, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch record: %w", err)
		}
		rec.AnalysisType = domain.AnalysisType(analysisType)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		if errMsg.Valid {
			rec.Error = &errMsg.String
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
