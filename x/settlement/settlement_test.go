package settlement

import (
	"testing"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/bazaartest"
	"github.com/iov-one/bazaar/bazaartest/assert"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/store"
	"github.com/iov-one/bazaar/x/cash"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/iov-one/bazaar/x/listing"
	"github.com/iov-one/bazaar/x/metadata"
	"github.com/iov-one/bazaar/x/registry"
)

func TestSettle(t *testing.T) {
	listingFee := coin.NewCoin(0, 500, "ETH")

	cases := map[string]struct {
		Price      coin.Coin
		Payment    coin.Coin
		BuyerFunds coin.Coin
		// Unlisted skips creating the listing.
		Unlisted bool
		// SellerBuys makes the seller the buyer.
		SellerBuys   bool
		WantErr      *errors.Error
		WantSeller   coin.Coin
		WantFee      coin.Coin
		WantRefund   coin.Coin
		WantBuyerEnd coin.Coin
	}{
		"exact payment": {
			Price:        coin.NewCoin(2, 0, "ETH"),
			Payment:      coin.NewCoin(2, 0, "ETH"),
			BuyerFunds:   coin.NewCoin(5, 0, "ETH"),
			WantSeller:   coin.NewCoin(1, 950000000, "ETH"),
			WantFee:      coin.NewCoin(0, 50000000, "ETH"),
			WantRefund:   coin.NewCoin(0, 0, "ETH"),
			WantBuyerEnd: coin.NewCoin(3, 0, "ETH"),
		},
		"overpayment is refunded": {
			Price:        coin.NewCoin(2, 0, "ETH"),
			Payment:      coin.NewCoin(3, 500, "ETH"),
			BuyerFunds:   coin.NewCoin(5, 0, "ETH"),
			WantSeller:   coin.NewCoin(1, 950000000, "ETH"),
			WantFee:      coin.NewCoin(0, 50000000, "ETH"),
			WantRefund:   coin.NewCoin(1, 500, "ETH"),
			WantBuyerEnd: coin.NewCoin(3, 0, "ETH"),
		},
		"rounding remainder goes to the platform": {
			Price:        coin.NewCoin(0, 39, "ETH"),
			Payment:      coin.NewCoin(0, 39, "ETH"),
			BuyerFunds:   coin.NewCoin(1, 0, "ETH"),
			WantSeller:   coin.NewCoin(0, 38, "ETH"),
			WantFee:      coin.NewCoin(0, 1, "ETH"),
			WantRefund:   coin.NewCoin(0, 0, "ETH"),
			WantBuyerEnd: coin.NewCoin(0, 999999961, "ETH"),
		},
		"free asset": {
			Price:        coin.NewCoin(0, 0, "ETH"),
			Payment:      coin.Coin{},
			BuyerFunds:   coin.NewCoin(1, 0, "ETH"),
			WantSeller:   coin.NewCoin(0, 0, "ETH"),
			WantFee:      coin.NewCoin(0, 0, "ETH"),
			WantRefund:   coin.NewCoin(0, 0, "ETH"),
			WantBuyerEnd: coin.NewCoin(1, 0, "ETH"),
		},
		"insufficient payment": {
			Price:      coin.NewCoin(2, 0, "ETH"),
			Payment:    coin.NewCoin(1, 999999999, "ETH"),
			BuyerFunds: coin.NewCoin(5, 0, "ETH"),
			WantErr:    errors.ErrInsufficientPayment,
		},
		"payment in another currency": {
			Price:      coin.NewCoin(2, 0, "ETH"),
			Payment:    coin.NewCoin(2, 0, "DOT"),
			BuyerFunds: coin.NewCoin(5, 0, "ETH"),
			WantErr:    errors.ErrCurrency,
		},
		"buyer cannot cover the payment": {
			Price:      coin.NewCoin(2, 0, "ETH"),
			Payment:    coin.NewCoin(2, 0, "ETH"),
			BuyerFunds: coin.NewCoin(1, 0, "ETH"),
			WantErr:    errors.ErrInsufficientAmount,
		},
		"negative payment": {
			Price:      coin.NewCoin(2, 0, "ETH"),
			Payment:    coin.NewCoin(-2, 0, "ETH"),
			BuyerFunds: coin.NewCoin(5, 0, "ETH"),
			WantErr:    errors.ErrAmount,
		},
		"not for sale": {
			Price:      coin.NewCoin(2, 0, "ETH"),
			Payment:    coin.NewCoin(2, 0, "ETH"),
			BuyerFunds: coin.NewCoin(5, 0, "ETH"),
			Unlisted:   true,
			WantErr:    errors.ErrNoActiveListing,
		},
		"seller buying own asset": {
			Price:      coin.NewCoin(2, 0, "ETH"),
			Payment:    coin.NewCoin(2, 0, "ETH"),
			BuyerFunds: coin.NewCoin(5, 0, "ETH"),
			SellerBuys: true,
			WantErr:    errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			collector := bazaartest.RandomAddr()
			policy := &feepolicy.Policy{
				ListingFee:  &listingFee,
				PlatformCut: &bazaar.Fraction{Numerator: 1, Denominator: 40},
				Collector:   collector,
			}
			wallets := cash.NewController(cash.NewBucket())
			reg, mover := registry.NewRegistry(metadata.NewValidator())
			ledger, closer := listing.NewLedger(reg, policy, wallets)
			settler := NewSettler(ledger, closer, mover, policy, wallets)

			seller := bazaartest.RandomAddr()
			buyer := bazaartest.RandomAddr()
			if tc.SellerBuys {
				buyer = seller
			}
			assert.Nil(t, wallets.IssueCoins(db, seller, listingFee))
			assert.Nil(t, wallets.IssueCoins(db, buyer, tc.BuyerFunds))

			asset, err := reg.Mint(db, seller, "ipfs://bafy")
			assert.Nil(t, err)
			if !tc.Unlisted {
				_, err = ledger.Create(db, asset.ID, seller, tc.Price, listingFee)
				assert.Nil(t, err)
			}

			// Run in a cache so that a failure can be checked for not
			// leaving any trace.
			cache := db.CacheWrap()
			res, err := settler.Settle(cache, asset.ID, buyer, tc.Payment)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				assert.Nil(t, res)
				for _, acct := range []bazaar.Address{buyer, seller, collector, Escrow(asset.ID)} {
					before, err := wallets.Balance(db, acct)
					assert.Nil(t, err)
					after, err := wallets.Balance(cache, acct)
					assert.Nil(t, err)
					assert.Equal(t, before, after)
				}
				a, err := reg.Get(cache, asset.ID)
				assert.Nil(t, err)
				assert.Equal(t, seller, a.Owner)
				cache.Discard()
				return
			}
			assert.Nil(t, cache.Write())

			assert.Equal(t, tc.WantSeller, res.SellerAmount)
			assert.Equal(t, tc.WantFee, res.FeeAmount)
			assert.Equal(t, tc.WantRefund, res.Refund)
			sum, err := res.SellerAmount.Add(res.FeeAmount)
			assert.Nil(t, err)
			assert.Equal(t, true, sum.Equals(tc.Price))

			a, err := reg.Get(db, asset.ID)
			assert.Nil(t, err)
			assert.Equal(t, buyer, a.Owner)

			current, err := ledger.Current(db, asset.ID)
			assert.Nil(t, err)
			assert.Equal(t, listing.Sold, current.State)
			assert.Equal(t, buyer, current.Buyer)
			assert.Equal(t, current, res.Listing)

			assertBalance(t, wallets, db, buyer, tc.WantBuyerEnd)
			assertBalance(t, wallets, db, seller, tc.WantSeller)
			fees, err := tc.WantFee.Add(listingFee)
			assert.Nil(t, err)
			assertBalance(t, wallets, db, collector, fees)
			assertBalance(t, wallets, db, Escrow(asset.ID), coin.NewCoin(0, 0, "ETH"))

			_, err = settler.Settle(db, asset.ID, bazaartest.RandomAddr(), tc.Price)
			assert.IsErr(t, errors.ErrNoActiveListing, err)
		})
	}
}

func assertBalance(t testing.TB, wallets cash.Controller, db bazaar.ReadOnlyKVStore, addr bazaar.Address, want coin.Coin) {
	t.Helper()
	coins, err := wallets.Balance(db, addr)
	assert.Nil(t, err)
	if got := coins.Balance(want.Ticker); !got.Equals(want) {
		t.Fatalf("%s: want %s, got %s", addr, want, got)
	}
}

func TestEscrowAddress(t *testing.T) {
	assert.Nil(t, Escrow(1).Validate())
	assert.Equal(t, Escrow(7), Escrow(7))
	if Escrow(1).Equals(Escrow(2)) {
		t.Fatal("escrow accounts of different assets collide")
	}
}
