package bazaartest

import (
	"testing"

	"github.com/iov-one/bazaar/store"
	"github.com/iov-one/bazaar/store/iavl"
)

// CommitStore returns a fresh in-memory iavl store, loaded and ready to
// be used.
func CommitStore(t testing.TB) store.CommitKVStore {
	t.Helper()

	db := iavl.MockCommitStore()
	if err := db.LoadLatestVersion(); err != nil {
		t.Fatalf("cannot load store: %+v", err)
	}
	return db
}
