package coin

import (
	"sort"
	"strings"

	"github.com/iov-one/bazaar/errors"
)

// Coins represents a set of coins. Most operations on the coin set require
// normalized form. Make sure to normalize you collection before using.
type Coins []*Coin

// Clone returns a copy that can be safely modified
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make([]*Coin, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return Coins(res)
}

// Add returns a new set, with the holdings of given currency increased by
// c. Zero results are removed from the set.
func (cs Coins) Add(c Coin) (Coins, error) {
	res := cs.Clone()
	if c.IsZero() {
		return res, nil
	}

	has, i := res.findCoin(c.ID())
	if has == nil {
		// insert keeping the ticker order
		res = append(res, nil)
		copy(res[i+1:], res[i:])
		res[i] = &c
		return res, nil
	}

	sum, err := has.Add(c)
	if err != nil {
		return nil, err
	}
	if sum.IsZero() {
		return append(res[:i], res[i+1:]...), nil
	}
	res[i] = &sum
	return res, nil
}

// Subtract returns a new set, with the holdings of given currency
// decreased by c. The resulting Coins may have negative amounts
func (cs Coins) Subtract(c Coin) (Coins, error) {
	return cs.Add(c.Negative())
}

// Combine will create a new Coins adding all the coins
// of s and o together.
func (cs Coins) Combine(o Coins) (Coins, error) {
	var err error
	res := cs.Clone()
	for _, c := range o {
		res, err = res.Add(*c)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains returns true if there is at least that much
// coin in the Coins. If it returns true, then:
//   s.Subtract(c).IsNonNegative() == true
func (cs Coins) Contains(c Coin) bool {
	if c.IsZero() {
		return true
	}
	has, _ := cs.findCoin(c.ID())
	if has == nil {
		return false
	}
	return has.IsGTE(c)
}

// Balance returns the holdings of given currency. A currency that is not
// present is returned as zero value.
func (cs Coins) Balance(ticker string) Coin {
	has, _ := cs.findCoin(ticker)
	if has == nil {
		return Coin{Ticker: ticker}
	}
	return *has
}

// findCoin returns a coin and index that have this
// currency code.
//
// If there was a match, then result is non-nil, and the
// index is where it was. If there was no match, then
// result is nil, and index is where it should be
// (which may be between 0 and len(cs)).
func (cs Coins) findCoin(id string) (*Coin, int) {
	for i, c := range cs {
		switch strings.Compare(id, c.ID()) {
		case -1:
			return nil, i
		case 0:
			return c, i
		}
	}
	// hit the end, must append
	return nil, len(cs)
}

// IsEmpty returns if nothing is in the Coins
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// IsNonNegative returns true if all coins are positive,
// but also accepts an empty Coins
func (cs Coins) IsNonNegative() bool {
	for _, c := range cs {
		if !c.IsPositive() {
			return false
		}
	}
	return true
}

// Equals returns true if both Coins contain same coins
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires that all coins are in alphabetical
// order and that each coin is valid in it's own right
//
// Zero amounts should not be present
func (cs Coins) Validate() error {
	var err error
	last := ""
	for _, c := range cs {
		if c == nil {
			err = errors.Append(err, errors.Wrap(errors.ErrEmpty, "nil coin"))
			continue
		}
		err = errors.Append(err, errors.Wrap(c.Validate(), "coin"))

		if c.IsZero() {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "zero coins"))
		}
		if c.Ticker <= last && last != "" {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "not sorted"))
		}
		last = c.Ticker
	}
	return err
}

// NormalizeCoins is a cleanup operation that merge and orders set of coin instances
// into a unified form. This includes merging coins of the same currency and
// sorting coins according to the ticker name.
func NormalizeCoins(cs Coins) (Coins, error) {
	set := make(map[string]Coin)
	for _, c := range cs {
		if IsEmpty(c) {
			continue
		}
		sum, err := set[c.Ticker].Add(*c)
		if err != nil {
			return nil, errors.Wrap(err, "cannot sum coins")
		}
		set[c.Ticker] = sum
	}
	coins := make([]*Coin, 0, len(set))
	for _, c := range set {
		if c.IsZero() {
			// Ignore zero coins because they carry no value.
			continue
		}
		cpy := c
		coins = append(coins, &cpy)
	}
	if len(coins) == 0 {
		return nil, nil
	}
	sort.Slice(coins, func(i, j int) bool {
		return strings.Compare(coins[i].Ticker, coins[j].Ticker) < 0
	})
	return coins, nil
}
