package cash

import (
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
)

// Controller is the functionality needed by other packages to manipulate
// account balances.
type Controller interface {
	// Balance returns all coins held by given account. An account that
	// was never funded has an empty balance.
	Balance(db bazaar.ReadOnlyKVStore, addr bazaar.Address) (coin.Coins, error)

	// MoveCoins moves the given amount from src to dest.
	// If src doesn't exist, or doesn't have sufficient
	// coins, it fails.
	MoveCoins(db bazaar.KVStore, src, dest bazaar.Address, amount coin.Coin) error

	// IssueCoins adds the given amount of coins to the destination
	// address.
	IssueCoins(db bazaar.KVStore, dest bazaar.Address, amount coin.Coin) error
}

// BaseController implements Controller on top of a cash bucket.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on given bucket.
func NewController(bucket orm.ModelBucket) BaseController {
	return BaseController{bucket: bucket}
}

func (c BaseController) load(db bazaar.ReadOnlyKVStore, addr bazaar.Address) (*Set, error) {
	var set Set
	switch err := c.bucket.One(db, addr, &set); {
	case err == nil:
		return &set, nil
	case errors.ErrNotFound.Is(err):
		return &Set{}, nil
	default:
		return nil, errors.Wrapf(err, "load wallet %s", addr)
	}
}

func (c BaseController) Balance(db bazaar.ReadOnlyKVStore, addr bazaar.Address) (coin.Coins, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	set, err := c.load(db, addr)
	if err != nil {
		return nil, err
	}
	return coin.Coins(set.Coins), nil
}

func (c BaseController) MoveCoins(db bazaar.KVStore, src, dest bazaar.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "non-positive transfer")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}

	sender, err := c.load(db, src)
	if err != nil {
		return err
	}
	if !coin.Coins(sender.Coins).Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds less than %s", src, amount)
	}
	if src.Equals(dest) {
		return nil
	}

	sender, err = sender.Subtract(amount)
	if err != nil {
		return err
	}
	if _, err := c.bucket.Put(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}
	return c.IssueCoins(db, dest, amount)
}

func (c BaseController) IssueCoins(db bazaar.KVStore, dest bazaar.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	recipient, err := c.load(db, dest)
	if err != nil {
		return err
	}
	recipient, err = recipient.Add(amount)
	if err != nil {
		return err
	}
	if _, err := c.bucket.Put(db, dest, recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}
