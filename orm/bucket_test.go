package orm

import (
	"testing"

	"github.com/iov-one/bazaar/bazaartest/assert"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/store"
)

func TestBucketName(t *testing.T) {
	assert.Panics(t, func() {
		// An invalid bucket name must crash.
		NewModelBucket("l33t", &Counter{})
	})
	assert.Panics(t, func() {
		NewModelBucket("cnts", &Counter{},
			WithIndex("owner", ownerIndexer),
			WithIndex("owner", ownerIndexer),
		)
	})
}

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	key, err := b.Put(db, nil, &Counter{Count: 7})
	assert.Nil(t, err)
	assert.Equal(t, EncodeSequence(1), key)

	key2, err := b.Put(db, nil, &Counter{Count: 9})
	assert.Nil(t, err)
	assert.Equal(t, EncodeSequence(2), key2)

	var c Counter
	assert.Nil(t, b.One(db, key, &c))
	assert.Equal(t, int64(7), c.Count)

	// Overwrite with an explicit key.
	_, err = b.Put(db, key, &Counter{Count: 8})
	assert.Nil(t, err)
	assert.Nil(t, b.One(db, key, &c))
	assert.Equal(t, int64(8), c.Count)

	assert.IsErr(t, errors.ErrNotFound, b.One(db, EncodeSequence(3), &c))
	assert.IsErr(t, errors.ErrType, b.One(db, key, &Other{}))

	_, err = b.Put(db, nil, &Counter{Count: -1})
	assert.IsErr(t, errors.ErrState, err)
	_, err = b.Put(db, nil, &Other{Name: "x"})
	assert.IsErr(t, errors.ErrType, err)
}

func TestModelBucketDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{}, WithIndex("owner", ownerIndexer))

	key, err := b.Put(db, nil, &Counter{Count: 1, Owner: []byte("alice")})
	assert.Nil(t, err)
	assert.Nil(t, b.Has(db, key))

	assert.Nil(t, b.Delete(db, key))
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, key))
	assert.IsErr(t, errors.ErrNotFound, b.Delete(db, key))

	var found []Counter
	keys, err := b.ByIndex(db, "owner", []byte("alice"), &found)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keys))
	assert.Equal(t, 0, len(found))
}

func TestModelBucketByIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{}, WithIndex("owner", ownerIndexer))

	k1, err := b.Put(db, nil, &Counter{Count: 1, Owner: []byte("alice")})
	assert.Nil(t, err)
	k2, err := b.Put(db, nil, &Counter{Count: 2, Owner: []byte("bob")})
	assert.Nil(t, err)
	k3, err := b.Put(db, nil, &Counter{Count: 3, Owner: []byte("alice")})
	assert.Nil(t, err)

	var alice []*Counter
	keys, err := b.ByIndex(db, "owner", []byte("alice"), &alice)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{k1, k3}, keys)
	assert.Equal(t, []*Counter{{Count: 1, Owner: []byte("alice")}, {Count: 3, Owner: []byte("alice")}}, alice)

	// Moving an entity moves its index entry.
	_, err = b.Put(db, k1, &Counter{Count: 1, Owner: []byte("bob")})
	assert.Nil(t, err)

	var bob []Counter
	keys, err = b.ByIndex(db, "owner", []byte("bob"), &bob)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{k1, k2}, keys)
	assert.Equal(t, 2, len(bob))

	alice = nil
	keys, err = b.ByIndex(db, "owner", []byte("alice"), &alice)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{k3}, keys)

	_, err = b.ByIndex(db, "nope", []byte("alice"), &alice)
	assert.IsErr(t, ErrInvalidIndex, err)

	var others []Other
	_, err = b.ByIndex(db, "owner", []byte("bob"), &others)
	assert.IsErr(t, errors.ErrType, err)
	_, err = b.ByIndex(db, "owner", []byte("bob"), bob)
	assert.IsErr(t, errors.ErrType, err)
}

func TestModelBucketPrefixScan(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})
	other := NewModelBucket("others", &Other{})

	for i := int64(1); i <= 3; i++ {
		_, err := b.Put(db, nil, &Counter{Count: i * 10})
		assert.Nil(t, err)
	}
	_, err := other.Put(db, nil, &Other{Name: "noise"})
	assert.Nil(t, err)

	cases := map[string]struct {
		reverse bool
		want    []int64
	}{
		"ascending":  {want: []int64{10, 20, 30}},
		"descending": {reverse: true, want: []int64{30, 20, 10}},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			it, err := b.PrefixScan(db, nil, tc.reverse)
			assert.Nil(t, err)
			defer it.Release()

			var got []int64
			for {
				var c Counter
				_, err := it.LoadNext(&c)
				if errors.ErrIteratorDone.Is(err) {
					break
				}
				assert.Nil(t, err)
				got = append(got, c.Count)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}
