package registry

import (
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
	"github.com/iov-one/bazaar/x/metadata"
)

// Registry mints assets and answers questions about them.
type Registry struct {
	bucket    orm.ModelBucket
	ids       orm.Sequence
	validator metadata.Validator
}

// Transferer changes asset ownership. It is only handed out by
// NewRegistry and must be passed on to the code allowed to settle sales.
type Transferer struct {
	r *Registry
}

// NewRegistry returns a registry validating locators with v, together with
// the capability of moving its assets.
func NewRegistry(v metadata.Validator) (*Registry, *Transferer) {
	r := &Registry{
		bucket:    NewBucket(),
		ids:       orm.NewSequence(BucketName, orm.SeqID),
		validator: v,
	}
	return r, &Transferer{r: r}
}

// NextID returns the id the next Mint call will allocate, unless another
// mint is committed first.
func (r *Registry) NextID(db bazaar.ReadOnlyKVStore) (uint64, error) {
	last, err := r.ids.Latest(db)
	if err != nil {
		return 0, errors.Wrap(err, "id sequence")
	}
	return last + 1, nil
}

// Mint creates a new asset owned by its creator.
func (r *Registry) Mint(db bazaar.KVStore, creator bazaar.Address, locator string) (*Asset, error) {
	if err := creator.Validate(); err != nil {
		return nil, errors.Field("Creator", err, "invalid creator")
	}
	if err := r.validator.Validate(locator); err != nil {
		return nil, errors.Field("Metadata", err, "invalid locator")
	}
	id, err := r.ids.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "id sequence")
	}
	asset := &Asset{
		ID:       id,
		Metadata: locator,
		Creator:  creator.Clone(),
		Owner:    creator.Clone(),
	}
	if _, err := r.bucket.Put(db, asset.Key(), asset); err != nil {
		return nil, errors.Wrap(err, "save asset")
	}
	return asset, nil
}

// Get returns the asset with given id or ErrUnknownAsset.
func (r *Registry) Get(db bazaar.ReadOnlyKVStore, id uint64) (*Asset, error) {
	var a Asset
	switch err := r.bucket.One(db, AssetKey(id), &a); {
	case err == nil:
		return &a, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(errors.ErrUnknownAsset, "asset %d", id)
	default:
		return nil, err
	}
}

// CheckOwner returns ErrNotOwner unless the asset is held by owner.
func (r *Registry) CheckOwner(db bazaar.ReadOnlyKVStore, id uint64, owner bazaar.Address) (*Asset, error) {
	a, err := r.Get(db, id)
	if err != nil {
		return nil, err
	}
	if !a.Owner.Equals(owner) {
		return nil, errors.Wrapf(errors.ErrNotOwner, "asset %d is held by %s", id, a.Owner)
	}
	return a, nil
}

// ByOwner returns all assets held by given account, in ascending id order.
func (r *Registry) ByOwner(db bazaar.ReadOnlyKVStore, owner bazaar.Address) ([]*Asset, error) {
	return r.byIndex(db, "owner", owner)
}

// ByCreator returns all assets minted by given account, in ascending id
// order.
func (r *Registry) ByCreator(db bazaar.ReadOnlyKVStore, creator bazaar.Address) ([]*Asset, error) {
	return r.byIndex(db, "creator", creator)
}

func (r *Registry) byIndex(db bazaar.ReadOnlyKVStore, index string, addr bazaar.Address) ([]*Asset, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	var assets []*Asset
	if _, err := r.bucket.ByIndex(db, index, addr, &assets); err != nil {
		return nil, errors.Wrapf(err, "%s index", index)
	}
	return assets, nil
}

// Transfer moves the asset from its current owner to a new one. It fails
// with ErrNotOwner if from is not the current owner.
func (t *Transferer) Transfer(db bazaar.KVStore, id uint64, from, to bazaar.Address) (*Asset, error) {
	if err := to.Validate(); err != nil {
		return nil, errors.Field("To", err, "invalid recipient")
	}
	a, err := t.r.CheckOwner(db, id, from)
	if err != nil {
		return nil, err
	}
	a.Owner = to.Clone()
	if _, err := t.r.bucket.Put(db, a.Key(), a); err != nil {
		return nil, errors.Wrap(err, "save asset")
	}
	return a, nil
}
