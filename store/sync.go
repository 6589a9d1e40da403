package store

import "sync"

// SyncReader guards every read of the wrapped store with a read lock.
// Iterators are materialized while the lock is held so that consuming them
// later never races with a writer holding the write lock.
type SyncReader struct {
	db ReadOnlyKVStore
	mu *sync.RWMutex
}

var _ ReadOnlyKVStore = SyncReader{}

// NewSyncReader returns a reader of db, synchronized with mu.
func NewSyncReader(db ReadOnlyKVStore, mu *sync.RWMutex) SyncReader {
	return SyncReader{db: db, mu: mu}
}

func (s SyncReader) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Get(key)
}

func (s SyncReader) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Has(key)
}

func (s SyncReader) Iterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	models, err := ReadAll(it)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(models), nil
}

func (s SyncReader) ReverseIterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.db.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	models, err := ReadAll(it)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(models), nil
}
