package cash

import (
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use bazaar.Address, so address in hex or bech32, not base64
type GenesisAccount struct {
	Address bazaar.Address `json:"address"`
	Coins   coin.Coins     `json:"coins"`
}

// Initializer fulfils the bazaar.Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ bazaar.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts bazaar.Options, db bazaar.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	ctrl := NewController(NewBucket())
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		coins, err := coin.NormalizeCoins(acct.Coins)
		if err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		for _, c := range coins {
			if err := ctrl.IssueCoins(db, acct.Address, *c); err != nil {
				return errors.Wrapf(err, "account %d", i)
			}
		}
	}
	return nil
}
