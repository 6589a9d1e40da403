package market

import (
	"context"

	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/x/listing"
	"github.com/iov-one/bazaar/x/registry"
	"github.com/iov-one/bazaar/x/settlement"
)

// Settlement describes a completed purchase.
type Settlement = settlement.Settlement

// Mint creates an asset owned by the creator and lists it for sale in one
// step. The listing fee is charged to the creator.
func (e *Engine) Mint(ctx context.Context, req MintRequest) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, errors.Wrap(err, "mint request")
	}

	var (
		asset *registry.Asset
		offer *listing.Listing
	)
	err := e.exec(ctx, "mint", func(tx *txn) error {
		id, err := e.registry.NextID(tx)
		if err != nil {
			return err
		}
		if err := tx.lockAsset(id); err != nil {
			return err
		}
		asset, err = e.registry.Mint(tx, req.Creator, req.Metadata)
		if err != nil {
			return err
		}
		if asset.ID != id {
			return errors.Wrapf(errors.ErrConflict, "allocated %d instead of %d", asset.ID, id)
		}
		offer, err = e.ledger.Create(tx, asset.ID, req.Creator, req.Price, req.Fee)
		return err
	})
	if err != nil {
		return 0, err
	}

	e.log(ctx).Info("minted",
		"op", "mint",
		"asset", asset.ID,
		"seller", asset.Creator,
		"price", offer.Price,
		"fee", req.Fee,
	)
	e.bus.Publish(TopicMinted, asset)
	e.bus.Publish(TopicListed, offer)
	return asset.ID, nil
}

// Buy settles the purchase of a listed asset. The payment is split between
// the seller and the fee collector, the excess is refunded and the buyer
// becomes the owner, all at once or not at all.
func (e *Engine) Buy(ctx context.Context, req BuyRequest) (*Settlement, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "buy request")
	}

	var res *Settlement
	err := e.exec(ctx, "buy", func(tx *txn) error {
		if err := tx.lockAsset(req.AssetID); err != nil {
			return err
		}
		var err error
		res, err = e.settler.Settle(tx, req.AssetID, req.Buyer, req.Payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log(ctx).Info("sold",
		"op", "buy",
		"asset", res.AssetID,
		"buyer", res.Buyer,
		"seller", res.Seller,
		"price", res.Price,
		"fee", res.FeeAmount,
	)
	e.bus.Publish(TopicSold, res)
	return res, nil
}

// Resell lists an owned asset again. The seller must be the current owner
// and pay the listing fee.
func (e *Engine) Resell(ctx context.Context, req ResellRequest) (*listing.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "resell request")
	}

	var offer *listing.Listing
	err := e.exec(ctx, "resell", func(tx *txn) error {
		if err := tx.lockAsset(req.AssetID); err != nil {
			return err
		}
		var err error
		offer, err = e.ledger.Create(tx, req.AssetID, req.Seller, req.Price, req.Fee)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log(ctx).Info("listed",
		"op", "resell",
		"asset", offer.AssetID,
		"seller", offer.Seller,
		"price", offer.Price,
		"fee", req.Fee,
	)
	e.bus.Publish(TopicListed, offer)
	return offer, nil
}
