package settlement

import (
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
	"github.com/iov-one/bazaar/x/cash"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/iov-one/bazaar/x/listing"
	"github.com/iov-one/bazaar/x/registry"
)

// Settlement describes a completed purchase.
type Settlement struct {
	AssetID uint64         `json:"asset_id"`
	Seller  bazaar.Address `json:"seller"`
	Buyer   bazaar.Address `json:"buyer"`
	Price   coin.Coin      `json:"price"`
	// SellerAmount and FeeAmount always sum up to Price.
	SellerAmount coin.Coin `json:"seller_amount"`
	FeeAmount    coin.Coin `json:"fee_amount"`
	// Refund is the part of the payment above Price returned to the buyer.
	Refund  coin.Coin        `json:"refund"`
	Listing *listing.Listing `json:"listing"`
}

// Settler performs purchases.
type Settler struct {
	ledger  *listing.Ledger
	closer  *listing.Closer
	mover   *registry.Transferer
	policy  *feepolicy.Policy
	wallets cash.Controller
}

// NewSettler returns a settler using the capabilities to move assets and
// to close listings.
func NewSettler(
	ledger *listing.Ledger,
	closer *listing.Closer,
	mover *registry.Transferer,
	policy *feepolicy.Policy,
	wallets cash.Controller,
) *Settler {
	return &Settler{
		ledger:  ledger,
		closer:  closer,
		mover:   mover,
		policy:  policy,
		wallets: wallets,
	}
}

// Escrow returns the address of the account holding the payment for given
// asset while it is being settled. It never holds funds between
// purchases.
func Escrow(assetID uint64) bazaar.Address {
	return bazaar.NewCondition("escrow", "asset", orm.EncodeSequence(assetID)).Address()
}

// Settle buys the listed asset for buyer, who sends amountSent. The
// payment must cover the price; anything above it is refunded.
//
// Every check is done before any funds move. A failure after that point
// leaves partial writes in db, which must then be discarded by the caller.
func (s *Settler) Settle(db bazaar.KVStore, assetID uint64, buyer bazaar.Address, amountSent coin.Coin) (*Settlement, error) {
	if err := buyer.Validate(); err != nil {
		return nil, errors.Field("Buyer", err, "invalid buyer")
	}
	if !amountSent.IsZero() {
		if err := amountSent.Validate(); err != nil {
			return nil, errors.Field("Payment", err, "invalid payment")
		}
	}
	if !amountSent.IsNonNegative() {
		return nil, errors.Field("Payment", errors.ErrAmount, "negative payment")
	}

	offer, err := s.ledger.Current(db, assetID)
	if err != nil {
		return nil, err
	}
	if offer == nil || offer.State != listing.Listed {
		return nil, errors.Wrapf(errors.ErrNoActiveListing, "asset %d", assetID)
	}
	if offer.Seller.Equals(buyer) {
		return nil, errors.Wrap(errors.ErrInput, "seller cannot buy own listing")
	}

	price := *offer.Price
	if amountSent.IsZero() {
		amountSent = coin.Coin{Ticker: price.Ticker}
	}
	if !amountSent.SameType(price) {
		return nil, errors.Wrapf(errors.ErrCurrency, "price is in %s, got %s", price.Ticker, amountSent.Ticker)
	}
	if amountSent.Compare(price) < 0 {
		return nil, errors.Wrapf(errors.ErrInsufficientPayment, "price is %s, got %s", price, amountSent)
	}

	sellerAmount, feeAmount, err := s.policy.Split(price)
	if err != nil {
		return nil, errors.Wrap(err, "split price")
	}
	refund, err := amountSent.Subtract(price)
	if err != nil {
		return nil, errors.Wrap(err, "refund")
	}

	escrow := Escrow(assetID)
	held, err := s.wallets.Balance(db, escrow)
	if err != nil {
		return nil, errors.Wrap(err, "escrow balance")
	}
	payouts := []struct {
		to     bazaar.Address
		amount coin.Coin
		what   string
	}{
		{offer.Seller, sellerAmount, "seller proceeds"},
		{s.policy.Collector, feeAmount, "platform cut"},
		{buyer, refund, "refund"},
	}
	if amountSent.IsPositive() {
		if err := s.wallets.MoveCoins(db, buyer, escrow, amountSent); err != nil {
			return nil, errors.Wrap(err, "escrow payment")
		}
	}
	for _, p := range payouts {
		if !p.amount.IsPositive() {
			continue
		}
		if err := s.wallets.MoveCoins(db, escrow, p.to, p.amount); err != nil {
			return nil, errors.Wrap(err, p.what)
		}
	}
	left, err := s.wallets.Balance(db, escrow)
	if err != nil {
		return nil, errors.Wrap(err, "escrow balance")
	}
	if !left.Equals(held) {
		return nil, errors.Wrapf(errors.ErrHuman, "escrow of asset %d changed from %v to %v", assetID, held, left)
	}

	if _, err := s.mover.Transfer(db, assetID, offer.Seller, buyer); err != nil {
		return nil, errors.Wrap(err, "transfer ownership")
	}
	closed, err := s.closer.Close(db, assetID, buyer)
	if err != nil {
		return nil, errors.Wrap(err, "close listing")
	}

	return &Settlement{
		AssetID:      assetID,
		Seller:       offer.Seller,
		Buyer:        buyer.Clone(),
		Price:        price,
		SellerAmount: sellerAmount,
		FeeAmount:    feeAmount,
		Refund:       refund,
		Listing:      closed,
	}, nil
}
