package coin

import (
	"testing"

	"github.com/iov-one/bazaar/bazaartest/assert"
	"github.com/iov-one/bazaar/errors"
)

func TestCoinsAdd(t *testing.T) {
	var cs Coins
	cs, err := cs.Add(NewCoin(5, 0, "IOV"))
	assert.Nil(t, err)
	cs, err = cs.Add(NewCoin(1, 0, "ETH"))
	assert.Nil(t, err)
	cs, err = cs.Add(NewCoin(0, 500, "IOV"))
	assert.Nil(t, err)

	assert.Equal(t, Coins{NewCoinp(1, 0, "ETH"), NewCoinp(5, 500, "IOV")}, cs)
	assert.Nil(t, cs.Validate())

	assert.Equal(t, true, cs.Contains(NewCoin(5, 0, "IOV")))
	assert.Equal(t, false, cs.Contains(NewCoin(6, 0, "IOV")))
	assert.Equal(t, false, cs.Contains(NewCoin(1, 0, "BTC")))
	assert.Equal(t, NewCoin(0, 0, "BTC"), cs.Balance("BTC"))
	assert.Equal(t, NewCoin(1, 0, "ETH"), cs.Balance("ETH"))

	// The original set is not modified.
	less, err := cs.Subtract(NewCoin(1, 0, "ETH"))
	assert.Nil(t, err)
	assert.Equal(t, Coins{NewCoinp(5, 500, "IOV")}, less)
	assert.Equal(t, 2, len(cs))

	more, err := cs.Combine(less)
	assert.Nil(t, err)
	assert.Equal(t, Coins{NewCoinp(1, 0, "ETH"), NewCoinp(10, 1000, "IOV")}, more)
}

func TestCoinsValidate(t *testing.T) {
	cases := map[string]struct {
		cs      Coins
		wantErr *errors.Error
	}{
		"empty":       {cs: nil},
		"sorted":      {cs: Coins{NewCoinp(1, 0, "ABC"), NewCoinp(1, 0, "DEF")}},
		"not sorted":  {cs: Coins{NewCoinp(1, 0, "DEF"), NewCoinp(1, 0, "ABC")}, wantErr: errors.ErrState},
		"duplicated":  {cs: Coins{NewCoinp(1, 0, "ABC"), NewCoinp(1, 0, "ABC")}, wantErr: errors.ErrState},
		"zero amount": {cs: Coins{NewCoinp(0, 0, "ABC")}, wantErr: errors.ErrState},
		"nil coin":    {cs: Coins{nil}, wantErr: errors.ErrEmpty},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, tc.cs.Validate())
		})
	}
}

func TestNormalizeCoins(t *testing.T) {
	got, err := NormalizeCoins(Coins{
		NewCoinp(1, 0, "IOV"),
		NewCoinp(2, 0, "ETH"),
		nil,
		NewCoinp(0, 5, "IOV"),
		NewCoinp(-2, 0, "ETH"),
	})
	assert.Nil(t, err)
	assert.Equal(t, Coins{NewCoinp(1, 5, "IOV")}, got)

	got, err = NormalizeCoins(nil)
	assert.Nil(t, err)
	assert.Equal(t, Coins(nil), got)
}
