package orm

import (
	"bytes"
	"math"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
)

const nativeIdxPrefix = "_x."

// Index maintains references from an indexed value to the primary keys of
// all entities that produced that value.
type Index interface {
	// Name returns the name of this index.
	Name() string

	// Update updates the index. It should be called when any of the bucket
	// entities has changed in the store.
	//
	// prev == nil means insert
	// next == nil means delete
	// both == nil is error
	Update(db bazaar.KVStore, key []byte, prev Model, next Model) error

	// Keys returns primary keys of all entities that were indexed under
	// given value, in ascending order.
	Keys(db bazaar.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

// NewNativeIndex returns an index implementation that is using a database
// native storage and query in order to maintain and provide access to an
// index.
func NewNativeIndex(name string, indexer MultiKeyIndexer) Index {
	return &nativeIndex{
		name:    name,
		indexer: indexer,
	}
}

// nativeIndex stores every indexed reference under its own key:
//    <prefix>#<index name>#<value>#<entity id>
// where # is a serialization specific data, irrelevant for the
// algorithm.
type nativeIndex struct {
	name    string
	indexer MultiKeyIndexer
}

func (ix *nativeIndex) Name() string {
	return ix.name
}

func (ix *nativeIndex) Update(db bazaar.KVStore, key []byte, prev Model, next Model) error {
	if next == nil && prev == nil {
		return errors.Wrap(errors.ErrInput, "update requires at least one non-nil model")
	}

	var prevValues, nextValues [][]byte
	if prev != nil {
		values, err := ix.indexer(prev)
		if err != nil {
			return errors.Wrap(err, "indexer")
		}
		prevValues = values
	}
	if next != nil {
		values, err := ix.indexer(next)
		if err != nil {
			return errors.Wrap(err, "indexer")
		}
		nextValues = values
	}

	// Only touch entries that changed so that unrelated writers of the
	// same index value never conflict on it.
	for _, v := range subtract(prevValues, nextValues) {
		idxKey, err := packNativeIdxKey([][]byte{[]byte(ix.name), v, key})
		if err != nil {
			return errors.Wrap(err, "build index key")
		}
		if err := db.Delete(idxKey); err != nil {
			return errors.Wrap(err, "db delete")
		}
	}
	for _, v := range subtract(nextValues, prevValues) {
		idxKey, err := packNativeIdxKey([][]byte{[]byte(ix.name), v, key})
		if err != nil {
			return errors.Wrap(err, "build index key")
		}
		if err := db.Set(idxKey, []byte{}); err != nil {
			return errors.Wrap(err, "db set")
		}
	}
	return nil
}

func (ix *nativeIndex) Keys(db bazaar.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	lookupKey, err := packNativeIdxKey([][]byte{[]byte(ix.name), value})
	if err != nil {
		return nil, errors.Wrap(err, "build index key")
	}

	// To iterate over all values matching given index, iterate over all
	// keys between:
	//    <prefix>#<index name>#<value> and <prefix>#<index name>#<value>{255}
	// Value 255 is reserved to make sure no indexed key is matching it
	// (see packNativeIdxKey function).
	start := lookupKey
	end := make([]byte, len(lookupKey)+1)
	copy(end, lookupKey)
	end[len(end)-1] = math.MaxUint8

	it, err := db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var keys [][]byte
	for {
		k, _, err := it.Next()
		switch {
		case err == nil:
			chunks, err := unpackNativeIdxKey(k)
			if err != nil {
				return nil, errors.Wrap(err, "unpack native index key")
			}
			keys = append(keys, chunks[len(chunks)-1])
		case errors.ErrIteratorDone.Is(err):
			return keys, nil
		default:
			return nil, err
		}
	}
}

// subtract returns all elements of minuend that are not in subtrahend.
func subtract(minuend [][]byte, subtrahend [][]byte) [][]byte {
	var res [][]byte
outer:
	for _, m := range minuend {
		for _, s := range subtrahend {
			if bytes.Equal(m, s) {
				continue outer
			}
		}
		res = append(res, m)
	}
	return res
}

// packNativeIdxKey serialize a native index key from a set of values to a
// single key. This process can be reversed using unpackNativeIdxKey function.
//
// When serialized, each chunk is prefixed with its length, encoded as a uint8
// value.  If a key is created from 3 chunks, "aaa", "" and "c", that key
// representation is:
//
//   _x.<3>aaa<0><1>c
//
// where <3>, <0> and <1> are that number values in bytes.
func packNativeIdxKey(chunks [][]byte) ([]byte, error) {
	var size int
	for _, b := range chunks {
		size += len(b) + 1
	}
	res := make([]byte, 0, size+len(nativeIdxPrefix))
	res = append(res, nativeIdxPrefix...)

	for _, b := range chunks {
		// MaxUint8 is reserved for the search purpose. MaxUint8 - 1 is
		// the greatest allowed length.
		if len(b) > math.MaxUint8-1 {
			return nil, errors.Wrapf(errors.ErrInput, "no chunk can be bigger than %d bytes", math.MaxUint8-1)
		}
		res = append(res, uint8(len(b)))
		res = append(res, b...)
	}
	return res, nil
}

// unpackNativeIdxKey decodes native index key and extracts all chunks that
// compose that key.
func unpackNativeIdxKey(b []byte) ([][]byte, error) {
	if !bytes.HasPrefix(b, []byte(nativeIdxPrefix)) {
		return nil, errors.Wrap(errors.ErrInput, "not a native index key")
	}
	b = b[len(nativeIdxPrefix):]
	res := make([][]byte, 0, 3)
	for len(b) > 0 {
		size := int(b[0])
		if len(b) < 1+size {
			return nil, errors.Wrap(errors.ErrInput, "malformed offset")
		}
		res = append(res, b[1:1+size])
		b = b[1+size:]
	}
	return res, nil
}
