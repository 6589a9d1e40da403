package iavl

import (
	"testing"

	"github.com/iov-one/bazaar/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tendermint/libs/db"
)

func TestCommitStoreCommitAndLoad(t *testing.T) {
	db := dbm.NewMemDB()
	s := newCommitStore(db, 2)

	require.NoError(t, s.Set([]byte("asset:1"), []byte("ipfs://a")))
	require.NoError(t, s.Set([]byte("asset:2"), []byte("ipfs://b")))
	id, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.NotEmpty(t, id.Hash)

	require.NoError(t, s.Delete([]byte("asset:1")))
	id2, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2.Version)
	assert.NotEqual(t, id.Hash, id2.Hash)

	// A fresh tree over the same db sees the latest state.
	loaded := newCommitStore(db, 2)
	require.NoError(t, loaded.LoadLatestVersion())
	latest, err := loaded.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, id2, latest)

	val, err := loaded.Get([]byte("asset:1"))
	require.NoError(t, err)
	assert.Nil(t, val)
	val, err = loaded.Get([]byte("asset:2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ipfs://b"), val)
}

func TestCommitStoreCacheWrap(t *testing.T) {
	s := MockCommitStore()
	for _, k := range []string{"b", "d", "f"} {
		require.NoError(t, s.Set([]byte(k), []byte(k)))
	}

	cache := s.CacheWrap()
	require.NoError(t, cache.Set([]byte("c"), []byte("c")))
	require.NoError(t, cache.Delete([]byte("d")))

	it, err := cache.Iterator([]byte("a"), []byte("z"))
	require.NoError(t, err)
	got, err := store.ReadAll(it)
	require.NoError(t, err)
	assert.Equal(t, []store.Model{
		{Key: []byte("b"), Value: []byte("b")},
		{Key: []byte("c"), Value: []byte("c")},
		{Key: []byte("f"), Value: []byte("f")},
	}, got)

	// Nothing reached the tree yet.
	has, err := s.Has([]byte("c"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, cache.Write())
	it, err = s.ReverseIterator(nil, nil)
	require.NoError(t, err)
	got, err = store.ReadAll(it)
	require.NoError(t, err)
	assert.Equal(t, []store.Model{
		{Key: []byte("f"), Value: []byte("f")},
		{Key: []byte("c"), Value: []byte("c")},
		{Key: []byte("b"), Value: []byte("b")},
	}, got)
}

func TestCommitStoreRollback(t *testing.T) {
	s := MockCommitStore()

	// Nothing committed yet, everything is dropped.
	require.NoError(t, s.Set([]byte("asset:1"), []byte("ipfs://a")))
	s.Rollback()
	val, err := s.Get([]byte("asset:1"))
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set([]byte("asset:1"), []byte("ipfs://a")))
	committed, err := s.Commit()
	require.NoError(t, err)

	require.NoError(t, s.Set([]byte("asset:1"), []byte("ipfs://changed")))
	require.NoError(t, s.Set([]byte("asset:2"), []byte("ipfs://b")))
	s.Rollback()

	val, err = s.Get([]byte("asset:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ipfs://a"), val)
	has, err := s.Has([]byte("asset:2"))
	require.NoError(t, err)
	assert.False(t, has)

	latest, err := s.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, committed, latest)
}
