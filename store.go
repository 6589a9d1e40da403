package bazaar

// ReadOnlyKVStore is a simple interface to query data.
type ReadOnlyKVStore interface {
	// Get returns nil iff key doesn't exist. Panics on nil key.
	Get(key []byte) ([]byte, error)

	// Has checks if a key exists. Panics on nil key.
	Has(key []byte) (bool, error)

	// Iterator over a domain of keys in ascending order. End is exclusive.
	// Start must be less than end, or the Iterator is invalid.
	// CONTRACT: No writes may happen within a domain while an iterator exists over it.
	Iterator(start, end []byte) (Iterator, error)

	// ReverseIterator over a domain of keys in descending order. End is exclusive.
	// Start must be greater than end, or the Iterator is invalid.
	// CONTRACT: No writes may happen within a domain while an iterator exists over it.
	ReverseIterator(start, end []byte) (Iterator, error)
}

// SetDeleter is a minimal interface for writing, unifying KVStore and Batch.
type SetDeleter interface {
	Set(key, value []byte) error // CONTRACT: key, value readonly []byte
	Delete(key []byte) error     // CONTRACT: key readonly []byte
}

// KVStore is a simple interface to get/set data.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	// NewBatch returns a batch that can write multiple ops atomically
	NewBatch() Batch
}

// Batch can write multiple ops atomically to an underlying KVStore.
type Batch interface {
	SetDeleter
	Write() error
}

// Iterator allows us to access a set of items within a range of keys.
//
//   var itr Iterator = ...
//   defer itr.Release()
//
//   k, v, err := itr.Next()
//   for err == nil {
//     // ...
//     k, v, err = itr.Next()
//   }
//   if !errors.ErrIteratorDone.Is(err) {
//     return err
//   }
type Iterator interface {
	// Next moves the iterator to the next sequential key in the database,
	// as defined by order of iteration. Returns ErrIteratorDone when
	// there are no more elements.
	Next() (key, value []byte, err error)

	// Release releases the Iterator.
	Release()
}

// CacheableKVStore is a KVStore that supports CacheWrapping.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap allows us to maintain a scratch-pad of uncommitted data
// that we can view with all queries.
//
// At the end, call Write to use the cached data, or Discard to drop it.
type KVCacheWrap interface {
	// CacheableKVStore allows us to use this Cache recursively
	CacheableKVStore

	// Write syncs with the underlying store.
	Write() error

	// Discard invalidates this CacheWrap and releases all data
	Discard()
}

// CommitKVStore is a store that persists versions of its state.
type CommitKVStore interface {
	CacheableKVStore

	// Commit the next version to disk, and returns info
	Commit() (CommitID, error)

	// LoadLatestVersion loads the latest persisted version.
	// If there was a crash during the last commit, it is guaranteed
	// to return a stable state, even if older.
	LoadLatestVersion() error

	// LatestVersion returns info on the latest version saved to disk
	LatestVersion() (CommitID, error)
}

// CommitID contains the tree version number and its merkle root.
type CommitID struct {
	Version int64
	Hash    []byte
}

// Marshaller is anything that can be represented in binary.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal.
//
// This is separated from Marshal, as this almost always requires a pointer,
// and functions that only need to marshal bytes can use the Marshaller
// interface to access non-pointers.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}
