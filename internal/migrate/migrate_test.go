package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoad_SortsAndPairsDownFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.up.sql":  {Data: []byte("CREATE TABLE b (id INTEGER)")},
		"001_first.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER)")},
		"001_first.down.sql": {Data: []byte("DROP TABLE a")},
		"README.md":          {Data: []byte("ignored")},
		"003_third.down.sql": {Data: []byte("orphan down is ignored")},
	}

	got, err := load(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "DROP TABLE a", got[0].DownSQL)
	assert.Equal(t, 2, got[1].Version)
	assert.Empty(t, got[1].DownSQL)
}

func TestLoad_Embedded(t *testing.T) {
	got, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for i, m := range got {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.DownSQL, m.Name)
	}
}

func TestMigrator_UpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m := New(db, nil)

	all, err := Load()
	require.NoError(t, err)

	applied, err := m.Up(ctx, all, 0)
	require.NoError(t, err)
	assert.Equal(t, len(all), applied)

	version, dirty, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(all), version)
	assert.False(t, dirty)

	_, err = db.ExecContext(ctx, `SELECT target FROM schema_targets`)
	require.NoError(t, err)

	applied, err = m.Up(ctx, all, 0)
	require.NoError(t, err)
	assert.Zero(t, applied)

	rolled, err := m.Down(ctx, all, 0)
	require.NoError(t, err)
	assert.Equal(t, len(all), rolled)

	version, _, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	_, err = db.ExecContext(ctx, `SELECT target FROM schema_targets`)
	assert.Error(t, err)
}

func TestMigrator_UpToTarget(t *testing.T) {
	ctx := context.Background()
	m := New(openDB(t), nil)

	all, err := Load()
	require.NoError(t, err)

	applied, err := m.Up(ctx, all, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	version, _, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestMigrator_RefusesDirtyDatabase(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m := New(db, nil)

	require.NoError(t, m.ensureTable(ctx))
	require.NoError(t, m.setVersion(ctx, 1, true))

	_, err := m.Up(ctx, []Migration{{Version: 2, Name: "x", UpSQL: "SELECT 1"}}, 0)
	assert.ErrorContains(t, err, "dirty state at version 1")
}
