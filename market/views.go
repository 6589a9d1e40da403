package market

import (
	"context"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/x/listing"
	"github.com/iov-one/bazaar/x/registry"
)

// OwnedItem is an asset together with its most recent listing. The listing
// is open if the asset is for sale, otherwise it records the last sale.
type OwnedItem struct {
	Asset   *registry.Asset  `json:"asset"`
	Listing *listing.Listing `json:"listing"`
	// LastSale is the most recent sold listing, nil if the asset never
	// changed hands.
	LastSale *listing.Listing `json:"last_sale,omitempty"`
}

// ListMarketItems returns all listings open for sale, by ascending asset
// id.
func (e *Engine) ListMarketItems(ctx context.Context) ([]*listing.Listing, error) {
	var res []*listing.Listing
	err := e.view(ctx, func(db bazaar.ReadOnlyKVStore) error {
		var err error
		res, err = e.ledger.Active(db)
		return err
	})
	return res, err
}

// ListOwnedItems returns all assets held by the account, by ascending
// asset id. Assets currently for sale are included.
func (e *Engine) ListOwnedItems(ctx context.Context, owner bazaar.Address) ([]OwnedItem, error) {
	var res []OwnedItem
	err := e.view(ctx, func(db bazaar.ReadOnlyKVStore) error {
		assets, err := e.registry.ByOwner(db, owner)
		if err != nil {
			return err
		}
		res, err = e.withListings(db, assets)
		return err
	})
	return res, err
}

// ListCreatedItems returns all assets minted by the account, by ascending
// asset id, whoever holds them now.
func (e *Engine) ListCreatedItems(ctx context.Context, creator bazaar.Address) ([]OwnedItem, error) {
	var res []OwnedItem
	err := e.view(ctx, func(db bazaar.ReadOnlyKVStore) error {
		assets, err := e.registry.ByCreator(db, creator)
		if err != nil {
			return err
		}
		res, err = e.withListings(db, assets)
		return err
	})
	return res, err
}

func (e *Engine) withListings(db bazaar.ReadOnlyKVStore, assets []*registry.Asset) ([]OwnedItem, error) {
	res := make([]OwnedItem, 0, len(assets))
	for _, a := range assets {
		l, err := e.ledger.Current(db, a.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "listing of asset %d", a.ID)
		}
		item := OwnedItem{Asset: a, Listing: l}
		if l != nil && l.State == listing.Sold {
			item.LastSale = l
		} else if item.LastSale, err = e.ledger.LastSold(db, a.ID); err != nil {
			return nil, errors.Wrapf(err, "last sale of asset %d", a.ID)
		}
		res = append(res, item)
	}
	return res, nil
}

// GetAsset returns the asset or ErrUnknownAsset.
func (e *Engine) GetAsset(ctx context.Context, id uint64) (*registry.Asset, error) {
	var a *registry.Asset
	err := e.view(ctx, func(db bazaar.ReadOnlyKVStore) error {
		var err error
		a, err = e.registry.Get(db, id)
		return err
	})
	return a, err
}

// TokenURI returns the metadata locator of the asset.
func (e *Engine) TokenURI(ctx context.Context, id uint64) (string, error) {
	a, err := e.GetAsset(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Metadata, nil
}

// ListingHistory returns every listing of the asset, oldest first.
func (e *Engine) ListingHistory(ctx context.Context, id uint64) ([]*listing.Listing, error) {
	var res []*listing.Listing
	err := e.view(ctx, func(db bazaar.ReadOnlyKVStore) error {
		if _, err := e.registry.Get(db, id); err != nil {
			return err
		}
		var err error
		res, err = e.ledger.History(db, id)
		return err
	})
	return res, err
}

// Balance returns the coins held by the account.
func (e *Engine) Balance(ctx context.Context, account bazaar.Address) (coin.Coins, error) {
	var res coin.Coins
	err := e.view(ctx, func(db bazaar.ReadOnlyKVStore) error {
		var err error
		res, err = e.wallets.Balance(db, account)
		return err
	})
	return res, err
}
