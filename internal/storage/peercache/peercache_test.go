package peercache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := New(Config{Path: filepath.Join(t.TempDir(), "peers.db")})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_PutGet(t *testing.T) {
	cache := newTestCache(t)
	seen := time.Unix(1700000000, 0).UTC()

	require.NoError(t, cache.Put("aa:bb", "192.168.1.7:3000", seen))

	rec, err := cache.Get("aa:bb")
	require.NoError(t, err)
	assert.Equal(t, "aa:bb", rec.Token)
	assert.Equal(t, "192.168.1.7:3000", rec.Endpoint)
	assert.Equal(t, seen, rec.LastSeen)
}

func TestCache_PutRefreshesExisting(t *testing.T) {
	cache := newTestCache(t)
	seen := time.Unix(1700000000, 0).UTC()

	require.NoError(t, cache.Put("aa:bb", "192.168.1.7:3000", seen))
	require.NoError(t, cache.Put("aa:bb", "192.168.1.7:3001", seen.Add(time.Second)))

	rec, err := cache.Get("aa:bb")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.7:3001", rec.Endpoint)
	assert.Equal(t, seen.Add(time.Second), rec.LastSeen)

	all, err := cache.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCache_GetUnknownToken(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get("missing")
	assert.ErrorIs(t, err, ErrPeerNotFound)
}

func TestCache_PutEmptyToken(t *testing.T) {
	cache := newTestCache(t)

	err := cache.Put("", "192.168.1.7:3000", time.Now())
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestCache_AllAndDelete(t *testing.T) {
	cache := newTestCache(t)
	seen := time.Unix(1700000000, 0).UTC()

	require.NoError(t, cache.Put("aa:01", "10.0.0.1:3000", seen))
	require.NoError(t, cache.Put("aa:02", "10.0.0.2:3000", seen))

	all, err := cache.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, cache.Delete("aa:01"))

	all, err = cache.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "aa:02", all[0].Token)
}
