// Package migrate applies the embedded SQL migrations to the local database.
package migrate

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/mpylon/migrations"
)

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Migration is one versioned schema change with its rollback.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator runs migrations against a database and reports progress on its logger.
type Migrator struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func New(db *sql.DB, logger logrus.FieldLogger) *Migrator {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Migrator{db: db, logger: logger}
}

// Load reads every embedded migration, sorted by version.
func Load() ([]Migration, error) {
	return load(migrations.FS)
}

func load(fsys fs.FS) ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		matches := upPattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return fmt.Errorf("parsing version of %s: %w", p, err)
		}

		up, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		// a missing down file leaves the migration irreversible
		down, _ := fs.ReadFile(fsys, strings.TrimSuffix(p, ".up.sql")+".down.sql")

		result = append(result, Migration{
			Version: version,
			Name:    matches[2],
			UpSQL:   string(up),
			DownSQL: string(down),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return result, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// Version returns the applied version and whether the last run failed midway.
func (m *Migrator) Version(ctx context.Context) (int, bool, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, false, fmt.Errorf("creating migrations table: %w", err)
	}

	var version, dirty int
	err := m.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty == 1, nil
}

func (m *Migrator) setVersion(ctx context.Context, version int, dirty bool) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		return err
	}
	if version == 0 {
		return nil
	}
	d := 0
	if dirty {
		d = 1
	}
	_, err := m.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, d)
	return err
}

func (m *Migrator) run(ctx context.Context, mig Migration, up bool) error {
	direction, content, target := "up", mig.UpSQL, mig.Version
	if !up {
		direction, content, target = "down", mig.DownSQL, mig.Version-1
	}

	m.logger.WithFields(logrus.Fields{
		"version":   mig.Version,
		"name":      mig.Name,
		"direction": direction,
	}).Info("applying migration")

	if err := m.setVersion(ctx, mig.Version, true); err != nil {
		return fmt.Errorf("marking version %d dirty: %w", mig.Version, err)
	}

	for _, stmt := range strings.Split(content, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d %s: %w\nSQL: %s", mig.Version, direction, err, stmt)
		}
	}

	if err := m.setVersion(ctx, target, false); err != nil {
		return fmt.Errorf("clearing dirty flag: %w", err)
	}
	return nil
}

// Up applies every pending migration up to and including target. A target
// of zero or less means all of them. It returns the number applied.
func (m *Migrator) Up(ctx context.Context, all []Migration, target int) (int, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	if dirty {
		return 0, fmt.Errorf("database is in dirty state at version %d", current)
	}

	applied := 0
	for _, mig := range all {
		if mig.Version <= current {
			continue
		}
		if target > 0 && mig.Version > target {
			break
		}
		if err := m.run(ctx, mig, true); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// Down rolls back every migration above target.
func (m *Migrator) Down(ctx context.Context, all []Migration, target int) (int, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	if dirty {
		return 0, fmt.Errorf("database is in dirty state at version %d", current)
	}

	rolled := 0
	for i := len(all) - 1; i >= 0; i-- {
		mig := all[i]
		if mig.Version > current {
			continue
		}
		if mig.Version <= target {
			break
		}
		if mig.DownSQL == "" {
			return rolled, fmt.Errorf("no down migration for version %d", mig.Version)
		}
		if err := m.run(ctx, mig, false); err != nil {
			return rolled, err
		}
		rolled++
	}
	return rolled, nil
}

// RunAll applies every pending embedded migration.
func RunAll(ctx context.Context, db *sql.DB) error {
	all, err := Load()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	_, err = New(db, nil).Up(ctx, all, 0)
	return err
}
