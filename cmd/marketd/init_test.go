package main

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/bazaartest"
	"github.com/iov-one/bazaar/bazaartest/assert"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/market"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/tendermint/tendermint/libs/log"
)

func tempHome(t *testing.T) (string, func()) {
	t.Helper()
	home, err := ioutil.TempDir("", "marketd")
	if err != nil {
		t.Fatalf("cannot create home: %s", err)
	}
	return home, func() { os.RemoveAll(home) }
}

func TestInitAndOpenMarket(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()
	logger := log.NewNopLogger()
	alice := bazaartest.RandomAddr()

	err := InitCmd(logger, home, []string{
		"-listing-fee", "0.1 ETH",
		"-platform-cut", "1/20",
		"-max-retries", "4",
		"-fund", alice.String() + "=12 ETH",
	})
	assert.Nil(t, err)

	path := filepath.Join(home, genesisFile)
	written, err := ioutil.ReadFile(path)
	assert.Nil(t, err)

	// An existing genesis is kept.
	assert.Nil(t, InitCmd(logger, home, []string{"-listing-fee", "5 ETH"}))
	kept, err := ioutil.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, written, kept)

	_, conf, err := loadGenesis(home)
	assert.Nil(t, err)
	assert.Equal(t, 4, conf.MaxRetries)

	m, closeStore, err := OpenMarket(logger, home, "ipfs")
	assert.Nil(t, err)

	p := m.Policy()
	assert.Equal(t, coin.NewCoinp(0, 100000000, "ETH"), p.ListingFee)
	assert.Equal(t, &bazaar.Fraction{Numerator: 1, Denominator: 20}, p.PlatformCut)
	assert.Equal(t, DefaultCollector(), p.Collector)

	coins, err := m.Balance(context.Background(), alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(12, 0, "ETH"), coins.Balance("ETH"))

	id, err := m.Mint(context.Background(), market.MintRequest{
		Creator:  alice,
		Metadata: "ipfs://bafyasset",
		Price:    coin.NewCoin(1, 0, "ETH"),
		Fee:      coin.NewCoin(0, 100000000, "ETH"),
	})
	assert.Nil(t, err)
	closeStore()

	// The database lock is released, so the state can be opened again.
	// Genesis is not applied a second time.
	m, closeStore, err = OpenMarket(logger, home, "ipfs")
	assert.Nil(t, err)
	defer closeStore()

	coins, err = m.Balance(context.Background(), alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(11, 900000000, "ETH"), coins.Balance("ETH"))
	uri, err := m.TokenURI(context.Background(), id)
	assert.Nil(t, err)
	assert.Equal(t, "ipfs://bafyasset", uri)
}

func TestInitRejectsInvalidOptions(t *testing.T) {
	cases := map[string][]string{
		"fee format":       {"-listing-fee", "ten"},
		"cut format":       {"-platform-cut", "a/b"},
		"cut above one":    {"-platform-cut", "3/2"},
		"collector":        {"-collector", "nobody"},
		"negative retries": {"-max-retries", "-1"},
		"fund format":      {"-fund", "12 ETH"},
		"unknown flag":     {"-color", "blue"},
	}
	for testName, args := range cases {
		t.Run(testName, func(t *testing.T) {
			home, cleanup := tempHome(t)
			defer cleanup()
			if err := InitCmd(log.NewNopLogger(), home, args); err == nil {
				t.Fatal("want an error")
			}
			if _, err := os.Stat(filepath.Join(home, genesisFile)); !os.IsNotExist(err) {
				t.Fatalf("genesis file written: %v", err)
			}
		})
	}
}

func TestLoadGenesisRequiresInit(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()
	_, _, err := loadGenesis(home)
	if err == nil {
		t.Fatal("want an error")
	}
}

func TestInitStateOnce(t *testing.T) {
	conf, err := newMarketOptions("0.5 ETH", "0", DefaultCollector().String(), 0)
	assert.Nil(t, err)
	alice := bazaartest.RandomAddr()
	gen, err := newGenesis("test", conf, fundings{{Address: alice, Coins: coin.Coins{coin.NewCoinp(3, 0, "ETH")}}})
	assert.Nil(t, err)

	db := bazaartest.CommitStore(t)
	assert.Nil(t, initState(log.NewNopLogger(), db, gen))
	assert.Nil(t, initState(log.NewNopLogger(), db, gen))

	latest, err := db.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), latest.Version)

	p, err := feepolicy.Load(db)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoinp(0, 500000000, "ETH"), p.ListingFee)
}

func TestInitStateRequiresMarketConfiguration(t *testing.T) {
	db := bazaartest.CommitStore(t)
	gen := &bazaar.Genesis{AppOptions: bazaar.Options{}}
	err := initState(log.NewNopLogger(), db, gen)
	assert.IsErr(t, errors.ErrNotFound, err)
}
