package listing

import (
	"fmt"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
	"github.com/iov-one/bazaar/x/cash"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/iov-one/bazaar/x/registry"
)

// Ledger creates listings and answers queries about them.
type Ledger struct {
	bucket   orm.ModelBucket
	registry *registry.Registry
	policy   *feepolicy.Policy
	wallets  cash.Controller
}

// Closer marks listings as sold. It is only handed out by NewLedger.
type Closer struct {
	l *Ledger
}

// NewLedger returns a ledger charging listing fees according to policy,
// together with the capability of closing its listings.
func NewLedger(reg *registry.Registry, policy *feepolicy.Policy, wallets cash.Controller) (*Ledger, *Closer) {
	l := &Ledger{
		bucket:   NewBucket(),
		registry: reg,
		policy:   policy,
		wallets:  wallets,
	}
	return l, &Closer{l: l}
}

// Create opens a new listing of the asset. The seller must own the asset,
// the asset must not be listed already and the attached fee must be exactly
// the configured listing fee. The fee is moved from the seller to the
// collector.
func (l *Ledger) Create(db bazaar.KVStore, assetID uint64, seller bazaar.Address, price, fee coin.Coin) (*Listing, error) {
	if err := validPrice(&price); err != nil {
		return nil, errors.Field("Price", err, "invalid price")
	}
	if _, err := l.registry.CheckOwner(db, assetID, seller); err != nil {
		return nil, err
	}
	prev, err := l.Current(db, assetID)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.State == Listed {
		return nil, errors.Wrapf(errors.ErrAssetAlreadyListed, "asset %d", assetID)
	}
	if err := l.policy.CheckListingFee(fee); err != nil {
		return nil, err
	}
	if fee.IsPositive() {
		if err := l.wallets.MoveCoins(db, seller, l.policy.Collector, fee); err != nil {
			return nil, errors.Wrap(err, "listing fee")
		}
	}

	var seq uint64 = 1
	if prev != nil {
		seq = prev.Seq + 1
	}
	listing := &Listing{
		AssetID: assetID,
		Seq:     seq,
		Seller:  seller.Clone(),
		Price:   price.Clone(),
		State:   Listed,
	}
	if fee.IsPositive() {
		listing.Fee = fee.Clone()
	}
	if _, err := l.bucket.Put(db, listing.Key(), listing); err != nil {
		return nil, errors.Wrap(err, "save listing")
	}
	return listing, nil
}

// Current returns the most recent listing of the asset, open or sold. It
// returns nil if the asset was never listed.
//
// Two open listings of the same asset can only be the result of a broken
// exclusion and cause a panic.
func (l *Ledger) Current(db bazaar.ReadOnlyKVStore, assetID uint64) (*Listing, error) {
	it, err := l.bucket.PrefixScan(db, assetPrefix(assetID), true)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var latest Listing
	switch _, err := it.LoadNext(&latest); {
	case err == nil:
	case errors.ErrIteratorDone.Is(err):
		return nil, nil
	default:
		return nil, err
	}
	if latest.State != Listed {
		return &latest, nil
	}

	var before Listing
	switch _, err := it.LoadNext(&before); {
	case err == nil:
		if before.State == Listed {
			panic(errors.Wrap(errors.ErrHuman, doubleListed(assetID)))
		}
	case errors.ErrIteratorDone.Is(err):
	default:
		return nil, err
	}
	return &latest, nil
}

// History returns all listings of the asset, oldest first.
func (l *Ledger) History(db bazaar.ReadOnlyKVStore, assetID uint64) ([]*Listing, error) {
	it, err := l.bucket.PrefixScan(db, assetPrefix(assetID), false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var res []*Listing
	for {
		var item Listing
		_, err := it.LoadNext(&item)
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, &item)
	}
}

// LastSold returns the most recent sold listing of the asset, or nil.
func (l *Ledger) LastSold(db bazaar.ReadOnlyKVStore, assetID uint64) (*Listing, error) {
	it, err := l.bucket.PrefixScan(db, assetPrefix(assetID), true)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	for {
		var item Listing
		_, err := it.LoadNext(&item)
		if errors.ErrIteratorDone.Is(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if item.State == Sold {
			return &item, nil
		}
	}
}

// Active returns all open listings in ascending asset id order.
func (l *Ledger) Active(db bazaar.ReadOnlyKVStore) ([]*Listing, error) {
	var res []*Listing
	if _, err := l.bucket.ByIndex(db, "active", activeValue, &res); err != nil {
		return nil, errors.Wrap(err, "active index")
	}
	for i := 1; i < len(res); i++ {
		if res[i].AssetID == res[i-1].AssetID {
			panic(errors.Wrap(errors.ErrHuman, doubleListed(res[i].AssetID)))
		}
	}
	return res, nil
}

// Close marks the open listing of the asset as sold to buyer. It fails
// with ErrNoActiveListing if the asset is not for sale.
func (c *Closer) Close(db bazaar.KVStore, assetID uint64, buyer bazaar.Address) (*Listing, error) {
	if err := buyer.Validate(); err != nil {
		return nil, errors.Field("Buyer", err, "invalid buyer")
	}
	current, err := c.l.Current(db, assetID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.State != Listed {
		return nil, errors.Wrapf(errors.ErrNoActiveListing, "asset %d", assetID)
	}
	current.State = Sold
	current.Buyer = buyer.Clone()
	if _, err := c.l.bucket.Put(db, current.Key(), current); err != nil {
		return nil, errors.Wrap(err, "save listing")
	}
	return current, nil
}

func doubleListed(assetID uint64) string {
	return fmt.Sprintf("asset %d has two open listings", assetID)
}
