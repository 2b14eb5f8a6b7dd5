package iocache

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/flowmosaic/mosaic/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache.db")
}

func TestCaching(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		dbPath := tempDBPath(t)
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		Manager = &CacheStoreManager{}

		err := InitCaching(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetSearchStore(), "Search store should not be nil")

		CloseCaching()

		_, err = os.Stat(dbPath)
		assert.False(t, os.IsNotExist(err), "Database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		dbPath := tempDBPath(t)
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		Manager = &CacheStoreManager{}

		assert.NoError(t, InitCaching(schema.SQLiteBackend, dbPath))
		assert.NoError(t, InitCaching(schema.SQLiteBackend, dbPath))
		assert.NoError(t, InitCaching(schema.SQLiteBackend, dbPath))

		CloseCaching()
		CloseCaching()
	})

	t.Run("empty backend disables caching", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		Manager = &CacheStoreManager{}

		require.NoError(t, InitCaching("", ""))
		assert.Nil(t, Manager.GetSearchStore())
		CloseCaching()
	})

	t.Run("unreachable redis fails", func(t *testing.T) {
		initOnce = sync.Once{}  // Reset for test
		closeOnce = sync.Once{} // Reset for test
		Manager = &CacheStoreManager{}

		err := InitCaching(schema.RedisBackend, "redis://127.0.0.1:1/0")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetSearchStore())
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid lowercase", "search_cache", false},
		{"valid leading underscore", "_cache", false},
		{"valid mixed case digits", "Cache2024", false},
		{"empty", "", true},
		{"starts with digit", "1cache", true},
		{"dash", "search-cache", true},
		{"space", "search cache", true},
		{"at sign", "cache@x", true},
		{"injection", "cache; DROP TABLE users", true},
		{"dot", "db.cache", true},
		{"semicolon", "cache;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`search_cache`", quoteTableName("search_cache", schema.MySQLBackend))
	assert.Equal(t, `"search_cache"`, quoteTableName("search_cache", schema.PostgreSQLBackend))
	assert.Equal(t, `"search_cache"`, quoteTableName("search_cache", schema.SQLiteBackend))
}

func TestQueries(t *testing.T) {
	pg := &CacheStoreImpl{tableName: searchTable, backend: schema.PostgreSQLBackend}
	my := &CacheStoreImpl{tableName: searchTable, backend: schema.MySQLBackend}
	lite := &CacheStoreImpl{tableName: searchTable, backend: schema.SQLiteBackend}

	assert.Equal(t, "$1", pg.getPlaceholder())
	assert.Equal(t, "?", my.getPlaceholder())
	assert.Equal(t, "?", lite.getPlaceholder())

	assert.Contains(t, pg.getUpsertQuery(), "ON CONFLICT (cache_key)")
	assert.Contains(t, my.getUpsertQuery(), "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, lite.getUpsertQuery(), "INSERT OR REPLACE")
}

func TestSQLiteBackendOperations(t *testing.T) {
	store, err := NewCacheStore(schema.SQLiteBackend, tempDBPath(t))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("miss", func(t *testing.T) {
		_, _, _, err := store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`[{"key":"A-1"}]`), 1, 1700000000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, `[{"key":"A-1"}]`, string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1700000000), ts)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte("[]"), 2, 1700000100))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(1700000100), ts)
	})

	t.Run("status", func(t *testing.T) {
		require.NoError(t, store.Set("k2", []byte("[]"), 1, 1699999000))
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(1700000100, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1699999000, 0), status.OldestEntryTime)
		assert.Positive(t, status.TableSizeBytes)
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dbPath := tempDBPath(t)

	store, err := NewCacheStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", []byte("[]"), 1, 42))
	require.NoError(t, store.Close())

	reopened, err := NewCacheStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	_, _, ts, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}

func TestNoneBackend(t *testing.T) {
	store, err := NewCacheStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("[]"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := NewCacheStore(schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)
}

func TestMigrateCache(t *testing.T) {
	dbPath := tempDBPath(t)

	result, err := runMigrations(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(0), result.From)
	assert.Equal(t, uint(2), result.To)

	result, err = runMigrations(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, uint(2), result.To)

	result, err = runMigrations(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(2), result.From)
	assert.Equal(t, uint(1), result.To)

	require.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, 0))

	// The table is gone after a full rollback
	store, err := newSQLStore(searchTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.GetStatus()
	assert.Error(t, err)
}

func TestMigrateCacheUnsupported(t *testing.T) {
	assert.Error(t, MigrateCache(schema.NoneBackend, "", -1))
	assert.Error(t, MigrateCache(schema.RedisBackend, "redis://localhost:6379/0", -1))
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := tempDBPath(t)
		store, err := NewCacheStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, tempDBPath(t), ""))
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.DatabaseBackend("oracle"), "", ""))
	})
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    3,
		LastEntryTime:   time.Date(2024, 3, 20, 10, 0, 0, 0, time.Local),
		OldestEntryTime: time.Date(2024, 3, 18, 9, 30, 0, 0, time.Local),
		TableSizeBytes:  8192,
	})
	out := buf.String()
	assert.Contains(t, out, "Cache Backend: sqlite")
	assert.Contains(t, out, "Total Entries: 3")
	assert.Contains(t, out, "Last Entry: 2024-03-20 10:00:00")
	assert.Contains(t, out, "Oldest Entry: 2024-03-18 09:30:00")
	assert.Contains(t, out, "Table Size: 8192 bytes")

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())
}
