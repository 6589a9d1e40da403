package iavl

import (
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

const (
	// cacheSize is the number of iavl nodes kept in memory.
	cacheSize = 10000

	// DefaultHistory is the number of committed versions that are kept
	// around. Older versions are pruned on commit.
	DefaultHistory = 100
)

// CommitStore manages a iavl committed state
type CommitStore struct {
	db      dbm.DB
	tree    *iavl.MutableTree
	history int64
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a new store with leveldb backing the data in
// given directory.
func NewCommitStore(path, name string) (*CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return newCommitStore(db, DefaultHistory), nil
}

// MockCommitStore creates a new in-memory store for testing.
func MockCommitStore() *CommitStore {
	return newCommitStore(dbm.NewMemDB(), DefaultHistory)
}

func newCommitStore(db dbm.DB, history int64) *CommitStore {
	return &CommitStore{
		db:      db,
		tree:    iavl.NewMutableTree(db, cacheSize),
		history: history,
	}
}

// Get returns the value of the working tree. Returns nil iff key doesn't
// exist.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.Get(key)
	return val, nil
}

// Has checks if a key exists in the working tree.
func (s *CommitStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set writes to the working tree. It becomes durable on Commit.
func (s *CommitStore) Set(key, value []byte) error {
	if value == nil {
		// iavl refuses nil values.
		value = []byte{}
	}
	s.tree.Set(key, value)
	return nil
}

// Delete removes from the working tree.
func (s *CommitStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that writes into the working tree.
func (s *CommitStore) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(s)
}

// CacheWrap gives us a savepoint to perform actions
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s *CommitStore) Iterator(start, end []byte) (store.Iterator, error) {
	return s.iterate(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is
// exclusive.
func (s *CommitStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return s.iterate(start, end, false), nil
}

func (s *CommitStore) iterate(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	add := func(key []byte, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	}
	s.tree.IterateRange(start, end, ascending, add)
	return store.NewSliceIterator(res)
}

// Commit the next version to disk, and returns info
func (s *CommitStore) Commit() (bazaar.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return bazaar.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if prune := version - s.history; prune > 0 && s.tree.VersionExists(prune) {
		if err := s.tree.DeleteVersion(prune); err != nil {
			return bazaar.CommitID{}, errors.Wrapf(errors.ErrDatabase, "prune %d: %s", prune, err)
		}
	}
	return bazaar.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s *CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (bazaar.CommitID, error) {
	return bazaar.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// Rollback drops all writes done since the last commit.
func (s *CommitStore) Rollback() {
	s.tree.Rollback()
}

// Close releases the underlying database. The store must not be used
// afterwards.
func (s *CommitStore) Close() {
	s.db.Close()
}
