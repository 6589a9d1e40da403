package gconf

import (
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
)

// ReadStore is a subset of bazaar.ReadOnlyKVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is a subset of bazaar.KVStore.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// ValidMarshaler is implemented by object that can serialize itself to a binary
// representation. You must add your own Validate method
type ValidMarshaler interface {
	Marshal() ([]byte, error)
	Validate() error
}

// Unmarshaler is implemented by object that can load their state from given
// binary representation.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Configuration is implemented by package configuration objects.
type Configuration interface {
	ValidMarshaler
	Unmarshaler
}

func confKey(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save will Validate the object, before writing it to a special "configuration"
// singleton for that package name.
func Save(db Store, pkg string, src ValidMarshaler) error {
	key := confKey(pkg)
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "validation: key %q", key)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal: key %q", key)
	}
	return db.Set(key, raw)
}

// Load reads the configuration of given package into dst. It returns
// ErrNotFound if the package was never configured.
func Load(db ReadStore, pkg string, dst Unmarshaler) error {
	key := confKey(pkg)
	raw, err := db.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "key %q", key)
	}
	if err := dst.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal: key %q", key)
	}
	return nil
}

// InitConfig will take opts["conf"][pkg], parse it into the given Configuration object
// validate it, and store under the proper key in the database
// Returns an error if anything goes wrong
func InitConfig(db Store, opts bazaar.Options, pkg string, conf Configuration) error {
	var confOptions bazaar.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}
