package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
)

const (
	// SeqID is a constant to use to get a default ID sequence
	SeqID = "id"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// ModelBucket is a prefixed subspace of the database that holds models of
// a single type, together with their secondary indexes and an id sequence.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db bazaar.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db bazaar.ReadOnlyKVStore, key []byte) error

	// ByIndex returns all objects that secondary index with given name and
	// given key. Main index is always unique but secondary indexes can
	// return more than one value for the same key.
	// All matching entities are appended to given destination slice. If no
	// result was found, no error is returned and destination slice is not
	// modified.
	// Returned are primary keys of loaded entities, in the same order.
	ByIndex(db bazaar.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)

	// PrefixScan will scan for all models with a primary key that begins
	// with the given prefix. The function returns a (possibly empty)
	// iterator, which can load each model as it arrives.
	// If reverse is true, iterates in descending order (highest value first),
	// otherwise, it iterates in ascending order.
	PrefixScan(db bazaar.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error)

	// Put saves given model in the database. Before inserting into
	// database, model is validated using its Validate method.
	// If the key is nil, next value of the bucket sequence is used.
	// Returned is the key that the model was stored under.
	Put(db bazaar.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db bazaar.KVStore, key []byte) error
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function.
func WithIndex(name string, indexer Indexer) ModelBucketOption {
	return WithMultiKeyIndex(name, asMultiKeyIndexer(indexer))
}

// WithMultiKeyIndex configures the bucket to build an index with given
// name, where each entity may be indexed under many values.
func WithMultiKeyIndex(name string, indexer MultiKeyIndexer) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("Index %s registered twice", name))
		}
		mb.indexes[name] = NewNativeIndex(mb.name+"_"+name, indexer)
	}
}

// NewModelBucket returns a ModelBucket instance that stores models of the
// same type as given one.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}

	tp := reflect.TypeOf(m)
	if tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}

	mb := &modelBucket{
		name:    name,
		prefix:  append([]byte(name), ':'),
		model:   tp,
		idSeq:   NewSequence(name, SeqID),
		indexes: make(map[string]Index),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	idSeq   Sequence
	indexes map[string]Index
}

var _ ModelBucket = (*modelBucket)(nil)

// dbKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (mb *modelBucket) dbKey(key []byte) []byte {
	l := len(mb.prefix)
	out := make([]byte, l+len(key))
	copy(out, mb.prefix)
	copy(out[l:], key)
	return out
}

func (mb *modelBucket) One(db bazaar.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshaling into %T", dest)
	}
	return nil
}

func (mb *modelBucket) Has(db bazaar.ReadOnlyKVStore, key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrNotFound, "nil key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

func (mb *modelBucket) ByIndex(db bazaar.ReadOnlyKVStore, indexName string, key []byte, destination ModelSlicePtr) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrap(ErrInvalidIndex, indexName)
	}
	keys, err := idx.Keys(db, key)
	if err != nil {
		return nil, errors.Wrap(err, "index keys")
	}
	if len(keys) == 0 {
		return nil, nil
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to slice of models")
	}
	if dest.IsNil() {
		return nil, errors.Wrap(errors.ErrImmutable, "got nil pointer")
	}
	dest = dest.Elem()
	if dest.Kind() != reflect.Slice {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to slice of models")
	}

	// It is allowed to pass destination as both []MyModel and []*MyModel
	sliceOfPointers := dest.Type().Elem().Kind() == reflect.Ptr

	allowed := dest.Type().Elem()
	if sliceOfPointers {
		allowed = allowed.Elem()
	}
	if mb.model != allowed {
		return nil, errors.Wrapf(errors.ErrType, "this bucket operates on %s model and cannot return %s", mb.model, allowed)
	}

	for _, k := range keys {
		val := reflect.New(mb.model)
		if err := mb.One(db, k, val.Interface().(Model)); err != nil {
			return nil, errors.Wrapf(err, "indexed key %X", k)
		}
		if !sliceOfPointers {
			val = val.Elem()
		}
		dest.Set(reflect.Append(dest, val))
	}
	return keys, nil
}

func (mb *modelBucket) PrefixScan(db bazaar.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error) {
	start, end := prefixRange(mb.dbKey(prefix))
	var (
		it  bazaar.Iterator
		err error
	)
	if reverse {
		it, err = db.ReverseIterator(start, end)
	} else {
		it, err = db.Iterator(start, end)
	}
	if err != nil {
		return nil, errors.Wrap(err, "iterator")
	}
	return &idModelIterator{iterator: it, bucketPrefix: mb.prefix}, nil
}

func (mb *modelBucket) Put(db bazaar.KVStore, key []byte, m Model) ([]byte, error) {
	if err := mb.checkType(m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		k, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
		key = k
	}

	if err := mb.updateIndexes(db, key, m); err != nil {
		return nil, errors.Wrap(err, "cannot update indexes")
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize model")
	}
	if raw == nil {
		raw = []byte{}
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (mb *modelBucket) Delete(db bazaar.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := mb.updateIndexes(db, key, nil); err != nil {
		return errors.Wrap(err, "cannot update indexes")
	}
	return db.Delete(mb.dbKey(key))
}

// updateIndexes moves all index entries of the entity stored under given
// key so they describe next. A nil next removes the entity from indexes.
func (mb *modelBucket) updateIndexes(db bazaar.KVStore, key []byte, next Model) error {
	if len(mb.indexes) == 0 {
		return nil
	}

	prev := reflect.New(mb.model).Interface().(Model)
	switch err := mb.One(db, key, prev); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		prev = nil
	default:
		return err
	}
	if prev == nil && next == nil {
		return nil
	}

	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, next); err != nil {
			return errors.Wrapf(err, "index %s", idx.Name())
		}
	}
	return nil
}

func (mb *modelBucket) checkType(m Model) error {
	tp := reflect.TypeOf(m)
	if tp == nil || tp.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "model must be a pointer")
	}
	if mb.model != tp.Elem() {
		return errors.Wrapf(errors.ErrType, "this bucket operates on %s model and cannot use %T", mb.model, m)
	}
	return nil
}

// prefixRange turns a prefix into a (start, end) range. The end result is
// nil if all bytes are 0xFF.
func prefixRange(prefix []byte) ([]byte, []byte) {
	if prefix == nil {
		return nil, nil
	}
	start := append([]byte{}, prefix...)
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, nil
}
