package store

import (
	"bytes"
	"crypto/sha256"

	"github.com/iov-one/bazaar/errors"
)

// ReadTracker wraps a ReadOnlyKVStore and records everything that was read
// through it. Validate later tells whether any of those reads would return
// a different result today.
//
// It is used as the backing store of a cache wrap: an operation computed on
// top of a tracked snapshot may only be written if its read set is still
// valid.
type ReadTracker struct {
	db     ReadOnlyKVStore
	keys   map[string][]byte
	ranges []rangeRead
}

type rangeRead struct {
	start, end []byte
	reverse    bool
	digest     [sha256.Size]byte
}

var _ ReadOnlyKVStore = (*ReadTracker)(nil)

// NewReadTracker returns a tracker reading from given store.
func NewReadTracker(db ReadOnlyKVStore) *ReadTracker {
	return &ReadTracker{
		db:   db,
		keys: make(map[string][]byte),
	}
}

// Get reads the key and records the returned value. A key that was already
// read returns the recorded value, so reads are repeatable.
func (r *ReadTracker) Get(key []byte) ([]byte, error) {
	if val, ok := r.keys[string(key)]; ok {
		return val, nil
	}
	val, err := r.db.Get(key)
	if err != nil {
		return nil, err
	}
	r.record(key, val)
	return val, nil
}

// Has checks the key presence and records the value behind it.
func (r *ReadTracker) Has(key []byte) (bool, error) {
	if val, ok := r.keys[string(key)]; ok {
		return val != nil, nil
	}
	val, err := r.db.Get(key)
	if err != nil {
		return false, err
	}
	r.record(key, val)
	return val != nil, nil
}

func (r *ReadTracker) record(key, val []byte) {
	if _, ok := r.keys[string(key)]; ok {
		return
	}
	if val == nil {
		r.keys[string(key)] = nil
		return
	}
	r.keys[string(key)] = append([]byte{}, val...)
}

// Iterator reads the whole range and records its digest.
func (r *ReadTracker) Iterator(start, end []byte) (Iterator, error) {
	return r.iterate(start, end, false)
}

// ReverseIterator reads the whole range and records its digest.
func (r *ReadTracker) ReverseIterator(start, end []byte) (Iterator, error) {
	return r.iterate(start, end, true)
}

func (r *ReadTracker) iterate(start, end []byte, reverse bool) (Iterator, error) {
	models, digest, err := readRange(r.db, start, end, reverse)
	if err != nil {
		return nil, err
	}
	r.ranges = append(r.ranges, rangeRead{
		start:   start,
		end:     end,
		reverse: reverse,
		digest:  digest,
	})
	return NewSliceIterator(models), nil
}

// Reads returns the number of tracked keys and ranges.
func (r *ReadTracker) Reads() int {
	return len(r.keys) + len(r.ranges)
}

// Validate returns ErrConflict if any recorded read returns a different
// result when executed against given store.
func (r *ReadTracker) Validate(db ReadOnlyKVStore) error {
	for key, want := range r.keys {
		got, err := db.Get([]byte(key))
		if err != nil {
			return err
		}
		if (got == nil) != (want == nil) || !bytes.Equal(got, want) {
			return errors.Wrapf(errors.ErrConflict, "key %X changed", key)
		}
	}
	for _, rr := range r.ranges {
		_, digest, err := readRange(db, rr.start, rr.end, rr.reverse)
		if err != nil {
			return err
		}
		if digest != rr.digest {
			return errors.Wrapf(errors.ErrConflict, "range %X-%X changed", rr.start, rr.end)
		}
	}
	return nil
}

func readRange(db ReadOnlyKVStore, start, end []byte, reverse bool) ([]Model, [sha256.Size]byte, error) {
	var (
		it  Iterator
		err error
	)
	if reverse {
		it, err = db.ReverseIterator(start, end)
	} else {
		it, err = db.Iterator(start, end)
	}
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	models, err := ReadAll(it)
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	h := sha256.New()
	for _, m := range models {
		writeChunk(h, m.Key)
		writeChunk(h, m.Value)
	}
	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))
	return models, digest, nil
}

type writer interface {
	Write([]byte) (int, error)
}

// writeChunk writes a length prefixed chunk so that concatenations cannot
// collide.
func writeChunk(w writer, b []byte) {
	n := len(b)
	_, _ = w.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	_, _ = w.Write(b)
}
