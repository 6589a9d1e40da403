package market

import (
	"strings"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
)

// MintRequest creates an asset and lists it for sale.
type MintRequest struct {
	Creator  bazaar.Address `json:"creator"`
	Metadata string         `json:"metadata"`
	Price    coin.Coin      `json:"price"`
	// Fee must be exactly the configured listing fee.
	Fee coin.Coin `json:"fee"`
}

// Validate checks the request without looking at the state.
func (r MintRequest) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Creator", r.Creator.Validate())
	if strings.TrimSpace(r.Metadata) == "" {
		errs = errors.AppendField(errs, "Metadata", errors.ErrInvalidMetadata)
	}
	errs = errors.AppendField(errs, "Price", validPrice(r.Price))
	errs = errors.AppendField(errs, "Fee", validOptional(r.Fee))
	return errs
}

// BuyRequest purchases a listed asset.
type BuyRequest struct {
	AssetID uint64         `json:"asset_id"`
	Buyer   bazaar.Address `json:"buyer"`
	// Payment must cover the price. Any excess is refunded.
	Payment coin.Coin `json:"payment"`
}

// Validate checks the request without looking at the state.
func (r BuyRequest) Validate() error {
	var errs error
	if r.AssetID == 0 {
		errs = errors.AppendField(errs, "AssetID", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Buyer", r.Buyer.Validate())
	errs = errors.AppendField(errs, "Payment", validOptional(r.Payment))
	return errs
}

// ResellRequest lists an owned asset again.
type ResellRequest struct {
	AssetID uint64         `json:"asset_id"`
	Seller  bazaar.Address `json:"seller"`
	Price   coin.Coin      `json:"price"`
	// Fee must be exactly the configured listing fee.
	Fee coin.Coin `json:"fee"`
}

// Validate checks the request without looking at the state.
func (r ResellRequest) Validate() error {
	var errs error
	if r.AssetID == 0 {
		errs = errors.AppendField(errs, "AssetID", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Seller", r.Seller.Validate())
	errs = errors.AppendField(errs, "Price", validPrice(r.Price))
	errs = errors.AppendField(errs, "Fee", validOptional(r.Fee))
	return errs
}

// validPrice requires a valid non negative amount. A zero price must still
// name its currency.
func validPrice(c coin.Coin) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative")
	}
	return nil
}

// validOptional accepts a zero value or a valid non negative amount.
func validOptional(c coin.Coin) error {
	if c.IsZero() {
		return nil
	}
	return validPrice(c)
}
