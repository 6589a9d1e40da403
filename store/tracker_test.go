package store

import (
	"sync"
	"testing"

	"github.com/iov-one/bazaar/errors"
	"github.com/stretchr/testify/require"
)

func TestReadTrackerValidate(t *testing.T) {
	cases := map[string]struct {
		read    func(t *testing.T, r *ReadTracker)
		change  func(t *testing.T, db KVStore)
		wantErr *errors.Error
	}{
		"untouched key": {
			read: func(t *testing.T, r *ReadTracker) {
				_, err := r.Get([]byte("wallet:alice"))
				require.NoError(t, err)
			},
			change: func(t *testing.T, db KVStore) {
				require.NoError(t, db.Set([]byte("wallet:bob"), []byte("1")))
			},
		},
		"changed key": {
			read: func(t *testing.T, r *ReadTracker) {
				_, err := r.Get([]byte("wallet:alice"))
				require.NoError(t, err)
			},
			change: func(t *testing.T, db KVStore) {
				require.NoError(t, db.Set([]byte("wallet:alice"), []byte("9")))
			},
			wantErr: errors.ErrConflict,
		},
		"missing key created": {
			read: func(t *testing.T, r *ReadTracker) {
				has, err := r.Has([]byte("seq"))
				require.NoError(t, err)
				require.False(t, has)
			},
			change: func(t *testing.T, db KVStore) {
				require.NoError(t, db.Set([]byte("seq"), []byte{1}))
			},
			wantErr: errors.ErrConflict,
		},
		"range grew": {
			read: func(t *testing.T, r *ReadTracker) {
				it, err := r.Iterator([]byte("wallet:"), []byte("wallet;"))
				require.NoError(t, err)
				it.Release()
			},
			change: func(t *testing.T, db KVStore) {
				require.NoError(t, db.Set([]byte("wallet:carol"), []byte("1")))
			},
			wantErr: errors.ErrConflict,
		},
		"range outside untouched": {
			read: func(t *testing.T, r *ReadTracker) {
				it, err := r.ReverseIterator([]byte("wallet:"), []byte("wallet;"))
				require.NoError(t, err)
				it.Release()
			},
			change: func(t *testing.T, db KVStore) {
				require.NoError(t, db.Set([]byte("zzz"), []byte("1")))
			},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := MemStore()
			require.NoError(t, db.Set([]byte("wallet:alice"), []byte("5")))

			tracker := NewReadTracker(db)
			tc.read(t, tracker)
			tc.change(t, db)
			if err := tracker.Validate(db); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestTrackedCacheWrap(t *testing.T) {
	var mu sync.RWMutex
	db := MemStore()
	require.NoError(t, db.Set([]byte("a"), []byte("1")))

	tracker := NewReadTracker(NewSyncReader(db, &mu))
	cache := NewBTreeCacheWrap(tracker, db.NewBatch(), nil)

	val, err := cache.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), val)
	require.NoError(t, cache.Set([]byte("a"), []byte("2")))

	// Reading own write does not extend the read set.
	_, err = cache.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, 1, tracker.Reads())

	mu.Lock()
	require.NoError(t, tracker.Validate(db))
	require.NoError(t, cache.Write())
	mu.Unlock()

	val, err = db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), val)
}

func TestReadTrackerRepeatableReads(t *testing.T) {
	db := MemStore()
	require.NoError(t, db.Set([]byte("seq"), []byte{1}))

	tracker := NewReadTracker(db)
	val, err := tracker.Get([]byte("seq"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, val)

	require.NoError(t, db.Set([]byte("seq"), []byte{2}))
	require.NoError(t, db.Set([]byte("new"), []byte{1}))

	val, err = tracker.Get([]byte("seq"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, val)

	// Keys not read before see the current state.
	has, err := tracker.Has([]byte("new"))
	require.NoError(t, err)
	require.True(t, has)

	require.True(t, errors.ErrConflict.Is(tracker.Validate(db)))
}
