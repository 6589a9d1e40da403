package orm

import (
	"testing"

	"github.com/iov-one/bazaar/bazaartest/assert"
	"github.com/iov-one/bazaar/store"
)

func TestNativeIdxKeyPacking(t *testing.T) {
	chunks := [][]byte{[]byte("aaa"), {}, []byte("c")}
	raw, err := packNativeIdxKey(chunks)
	assert.Nil(t, err)
	assert.Equal(t, []byte("_x.\x03aaa\x00\x01c"), raw)

	back, err := unpackNativeIdxKey(raw)
	assert.Nil(t, err)
	assert.Equal(t, chunks, back)

	_, err = packNativeIdxKey([][]byte{make([]byte, 255)})
	if err == nil {
		t.Fatal("too long chunk accepted")
	}
	if _, err := unpackNativeIdxKey([]byte("_y.\x01a")); err == nil {
		t.Fatal("foreign key accepted")
	}
}

func TestNativeIndexUpdateTouchesOnlyChanged(t *testing.T) {
	db := store.MemStore()
	idx := NewNativeIndex("cnts_owner", asMultiKeyIndexer(ownerIndexer))

	a := &Counter{Owner: []byte("alice")}
	assert.Nil(t, idx.Update(db, []byte("k1"), nil, a))
	assert.Nil(t, idx.Update(db, []byte("k2"), nil, a))

	// Updating to the same owner does not write anything.
	cache := db.CacheWrap()
	assert.Nil(t, idx.Update(cache, []byte("k1"), a, &Counter{Count: 3, Owner: []byte("alice")}))
	it, err := cache.Iterator(nil, nil)
	assert.Nil(t, err)
	all, err := store.ReadAll(it)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(all))
	cache.Discard()

	keys, err := idx.Keys(db, []byte("alice"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("k1"), []byte("k2")}, keys)

	// A value that is a prefix of another is not matched.
	assert.Nil(t, idx.Update(db, []byte("k3"), nil, &Counter{Owner: []byte("ali")}))
	keys, err = idx.Keys(db, []byte("ali"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("k3")}, keys)

	assert.Nil(t, idx.Update(db, []byte("k1"), a, nil))
	keys, err = idx.Keys(db, []byte("alice"))
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{[]byte("k2")}, keys)
}
