package orm

import (
	"bytes"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
)

// ModelIterator allows to load models one by one.
//
//   it, err := bucket.PrefixScan(db, nil, false)
//   ...
//   defer it.Release()
//   for {
//     var m MyModel
//     key, err := it.LoadNext(&m)
//     if errors.ErrIteratorDone.Is(err) {
//       break
//     }
//     ...
//   }
type ModelIterator interface {
	// LoadNext moves the iterator to the next sequential key in the
	// database and loads the current value into the passed destination.
	// Returned is the primary key of the loaded entity.
	LoadNext(dest Model) ([]byte, error)

	// Release releases the Iterator.
	Release()
}

type idModelIterator struct {
	// this is the raw KVStoreIterator
	iterator bazaar.Iterator
	// this is the bucketPrefix to strip from each key
	bucketPrefix []byte
}

var _ ModelIterator = (*idModelIterator)(nil)

func (i *idModelIterator) LoadNext(dest Model) ([]byte, error) {
	key, value, err := i.iterator.Next()
	if err != nil {
		return nil, err
	}
	// since we use raw kvstore here, we must remove the bucket prefix manually
	if !bytes.HasPrefix(key, i.bucketPrefix) {
		return nil, errors.Wrapf(errors.ErrDatabase, "key with unexpected prefix: %X", key)
	}
	if err := dest.Unmarshal(value); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling into %T", dest)
	}
	return key[len(i.bucketPrefix):], nil
}

func (i *idModelIterator) Release() {
	i.iterator.Release()
}
