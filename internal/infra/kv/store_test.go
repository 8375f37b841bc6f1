package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, 1, KeyTasks)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, 1, KeyTasks, []byte(`[{"id":1}]`)))
	require.NoError(t, s.Put(ctx, 2, KeyTasks, []byte(`[]`)))

	raw, err := s.Get(ctx, 1, KeyTasks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))

	require.NoError(t, s.Put(ctx, 1, KeyTasks, []byte(`[{"id":2}]`)))
	raw, err = s.Get(ctx, 1, KeyTasks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2}]`, string(raw))

	require.NoError(t, s.Delete(ctx, 1, KeyTasks))
	_, err = s.Get(ctx, 1, KeyTasks)
	require.ErrorIs(t, err, ErrNotFound)

	raw, err = s.Get(ctx, 2, KeyTasks)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, "test")
	exerciseStore(t, s)

	require.NoError(t, s.Put(context.Background(), 7, KeyTheme, []byte(`"light"`)))
	assert.True(t, mr.Exists("test:7:themeMode"))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "smeta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestParseKey(t *testing.T) {
	k, ok := ParseKey("estimatesData")
	require.True(t, ok)
	assert.Equal(t, KeyEstimates, k)

	_, ok = ParseKey("dialogState")
	assert.False(t, ok, "internal keys are not addressable")
}
