package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/bazaar/errors"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore returns an in-memory store that keeps all data in a btree.
// There is no persistence here.
func MemStore() CacheableKVStore {
	return NewBTreeCacheWrap(EmptyKVStore{}, nil, nil)
}

///////////////////////////////////////////////
// Actual CacheWrap implementation

// BTreeCacheWrap places a btree cache over a KVStore. All changes are
// kept in the btree and replayed on the backing store only when Write is
// called. Discard drops them. This is what allows an operation consisting
// of many writes to be applied as a single unit, or not at all.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this
// kv store. Use ReadOnlyKVStore to emphasize that all writes
// must go through the Batch.
//
// batch may be nil, in which case the btree is the final destination of
// all writes and Write is a no-op.
// free may be nil, but set to an existing list to reuse it
// for memory savings
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap layers another BTree on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a non-atomic batch that eventually may write to
// our cachewrap
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write syncs with the underlying store.
// And then cleans up
func (b BTreeCacheWrap) Write() error {
	if b.batch == nil {
		return nil
	}
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard invalidates this CacheWrap and releases all data
func (b BTreeCacheWrap) Discard() {
	// clean up the btree -> freelist
	for b.bt.DeleteMin() != nil {
	}
}

// Set writes to the BTree and to the batch
func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	if b.batch == nil {
		return nil
	}
	return b.batch.Set(key, value)
}

// Delete deletes from the BTree and to the batch
func (b BTreeCacheWrap) Delete(key []byte) error {
	if b.batch == nil {
		b.bt.Delete(bkey{key})
		return nil
	}
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	return b.batch.Delete(key)
}

// Get reads from btree if there, else backing store
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch t := res.(type) {
		case setItem:
			return t.value, nil
		case deletedItem:
			return nil, nil
		default:
			return nil, errors.Wrapf(errors.ErrDatabase, "Unknown item in btree: %#v", res)
		}
	}
	return b.back.Get(key)
}

// Has reads from btree if there, else backing store
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch res.(type) {
		case setItem:
			return true, nil
		case deletedItem:
			return false, nil
		default:
			return false, errors.Wrapf(errors.ErrDatabase, "Unknown item in btree: %#v", res)
		}
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order.
// Combines results from btree and backing store
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return b.combine(parent, start, end, false)
}

// ReverseIterator over a domain of keys in descending order.
// Combines results from btree and backing store
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return b.combine(parent, start, end, true)
}

// combine joins our results with those of the parent, taking into
// consideration overwrites and deletes. The result is materialized so the
// returned iterator does not depend on the btree after this call.
func (b BTreeCacheWrap) combine(parent Iterator, start, end []byte, reverse bool) (Iterator, error) {
	ours := collect(b.bt, start, end)
	if reverse {
		for i, j := 0, len(ours)-1; i < j; i, j = i+1, j-1 {
			ours[i], ours[j] = ours[j], ours[i]
		}
	}
	theirs, err := ReadAll(parent)
	if err != nil {
		return nil, errors.Wrap(err, "parent iterator")
	}

	res := make([]Model, 0, len(ours)+len(theirs))
	i, j := 0, 0
	for i < len(ours) || j < len(theirs) {
		var cmp int
		switch {
		case i == len(ours):
			cmp = 1
		case j == len(theirs):
			cmp = -1
		default:
			cmp = bytes.Compare(ours[i].Key(), theirs[j].Key)
			if reverse {
				cmp = -cmp
			}
		}

		switch {
		case cmp > 0:
			res = append(res, theirs[j])
			j++
		case cmp == 0:
			// Our version shadows the parent one.
			j++
			fallthrough
		default:
			if s, ok := ours[i].(setItem); ok {
				res = append(res, Model{Key: s.key, Value: s.value})
			}
			i++
		}
	}
	return NewSliceIterator(res), nil
}

// collect returns all btree items within [start, end) in ascending order.
func collect(bt *btree.BTree, start, end []byte) []keyer {
	var res []keyer
	add := func(item btree.Item) bool {
		res = append(res, item.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(add)
	case start == nil:
		bt.AscendLessThan(bkey{end}, add)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, add)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, add)
	}
	return res
}

/////////////////////////////////////////////////////////
// Items to write to btree

// we enforce all data in our btree implements keyer so we
// can compare nicely
type keyer interface {
	Key() []byte
}

// bkey implements keyer and btree.Item
// and may be used for queries or embedded in data to store
type bkey struct {
	key []byte
}

var _ keyer = bkey{}
var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

// Less returns true iff second argument is greater than first
//
// panics if the item to compare doesn't implement keyer.
func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

type deletedItem struct {
	bkey
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bkey{key}}
}

type setItem struct {
	bkey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{bkey{key}, value}
}
