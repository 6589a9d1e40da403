package orm

import (
	"github.com/iov-one/bazaar"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	bazaar.Persistent
	Validate() error
}

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model Because of Go type system, using []Model would not work for us.
// Instead we use a placeholder type and the validation is done during the
// runtime.
type ModelSlicePtr interface{}

// Indexer calculates the secondary index value for a given model. A nil
// value means the model is not indexed.
type Indexer func(Model) ([]byte, error)

// MultiKeyIndexer calculates the secondary index values for a given model.
type MultiKeyIndexer func(Model) ([][]byte, error)

func asMultiKeyIndexer(indexer Indexer) MultiKeyIndexer {
	return func(m Model) ([][]byte, error) {
		key, err := indexer(m)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}
