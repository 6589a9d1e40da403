package bazaar

import (
	"encoding/json"

	"github.com/iov-one/bazaar/errors"
)

// Genesis is the content of the genesis file. It describes the initial
// state of a fresh market.
type Genesis struct {
	ChainID    string  `json:"chain_id"`
	AppOptions Options `json:"app_options"`
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "option %q: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...Initializer) Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts Options, kv KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
