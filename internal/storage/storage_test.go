package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DefaultConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenInMemory(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Ping())
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestOpenCreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "drafts.db")

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()

	// The migrated schema should accept writes right away.
	require.NoError(t, db.Set(context.Background(), "probe", []byte("ok")))

	value, ok, err := db.Get(context.Background(), "probe")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("ok"), value)
}

func TestGetMissingKey(t *testing.T) {
	db := openTestDB(t)

	value, ok, err := db.Get(context.Background(), "never-set")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestSetAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "seats", []byte(`[{"drafted":[]}]`)))

	value, ok, err := db.Get(ctx, "seats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"drafted":[]}]`, string(value))
}

func TestSetOverwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "digest", []byte("aaaa")))
	require.NoError(t, db.Set(ctx, "digest", []byte("bbbb")))

	value, ok, err := db.Get(ctx, "digest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bbbb", string(value))
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "seats", []byte("x")))
	require.NoError(t, db.Set(ctx, "digest", []byte("y")))

	require.NoError(t, db.Clear(ctx))

	for _, key := range []string{"seats", "digest"} {
		_, ok, err := db.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %q survived Clear", key)
	}
}

func TestFileDBAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()

	var journalMode string
	require.NoError(t, db.Conn().QueryRow(`PRAGMA journal_mode`).Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.Conn().QueryRow(`PRAGMA busy_timeout`).Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.db")
	ctx := context.Background()

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "digest", []byte("cafe")))
	require.NoError(t, db.Close())

	db, err = Open(DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()

	value, ok, err := db.Get(ctx, "digest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cafe", string(value))
}
