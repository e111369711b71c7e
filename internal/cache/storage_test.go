package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*SessionStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStorage(rdb), mr
}

func TestSessionStorageRoundTrip(t *testing.T) {
	storage, _ := newTestStorage(t)

	require.NoError(t, storage.Set("abc", []byte("payload"), time.Minute))

	got, err := storage.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, storage.Delete("abc"))
	got, err = storage.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStorageMissingKey(t *testing.T) {
	storage, _ := newTestStorage(t)

	got, err := storage.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStorageExpiry(t *testing.T) {
	storage, mr := newTestStorage(t)

	require.NoError(t, storage.Set("abc", []byte("payload"), time.Second))
	mr.FastForward(2 * time.Second)

	got, err := storage.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStorageReset(t *testing.T) {
	storage, _ := newTestStorage(t)

	require.NoError(t, storage.Set("one", []byte("1"), time.Minute))
	require.NoError(t, storage.Set("two", []byte("2"), time.Minute))

	require.NoError(t, storage.Reset())

	got, err := storage.Get("one")
	require.NoError(t, err)
	assert.Nil(t, got)
}
