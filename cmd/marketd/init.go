package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/market"
	"github.com/iov-one/bazaar/x/cash"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/tendermint/tendermint/libs/log"
)

const genesisFile = "genesis.json"

// marketOptions is the conf.market section of the genesis file. It extends
// the fee policy with the engine settings.
type marketOptions struct {
	feepolicy.Policy
	MaxRetries int `json:"max_retries,omitempty"`
}

// fundings collects repeated -fund flags in the address=coins form.
type fundings []cash.GenesisAccount

func (f *fundings) String() string {
	parts := make([]string, 0, len(*f))
	for _, a := range *f {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Address, a.Coins))
	}
	return strings.Join(parts, ",")
}

func (f *fundings) Set(raw string) error {
	chunks := strings.SplitN(raw, "=", 2)
	if len(chunks) != 2 {
		return errors.Wrapf(errors.ErrInput, "fund %q: expected address=amount", raw)
	}
	addr, err := bazaar.ParseAddress(chunks[0])
	if err != nil {
		return errors.Wrapf(err, "fund %q", raw)
	}
	amount, err := coin.ParseHumanFormat(chunks[1])
	if err != nil {
		return errors.Wrapf(err, "fund %q", raw)
	}
	*f = append(*f, cash.GenesisAccount{Address: addr, Coins: coin.Coins{&amount}})
	return nil
}

// DefaultCollector is the fee collector used when none is given.
func DefaultCollector() bazaar.Address {
	return bazaar.NewCondition("market", "collector", []byte("default")).Address()
}

// InitCmd writes a genesis file with the market configuration into the home
// directory. An existing genesis file is never overwritten.
func InitCmd(logger log.Logger, home string, args []string) error {
	var (
		chainID    string
		fee        string
		cut        string
		collector  string
		maxRetries int
		funds      fundings
	)
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.StringVar(&chainID, "chain-id", "bazaar-local", "name of the market instance")
	fs.StringVar(&fee, "listing-fee", "0.0025 ETH", "fee charged for every listing")
	fs.StringVar(&cut, "platform-cut", "1/40", "share of every sale paid to the collector")
	fs.StringVar(&collector, "collector", DefaultCollector().String(), "address receiving the fees")
	fs.IntVar(&maxRetries, "max-retries", market.DefaultMaxRetries, "optimistic commit attempts")
	fs.Var(&funds, "fund", "initial balance as address=amount, can be repeated")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	conf, err := newMarketOptions(fee, cut, collector, maxRetries)
	if err != nil {
		return err
	}
	gen, err := newGenesis(chainID, conf, funds)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(home, 0700); err != nil {
		return errors.Wrap(err, "home directory")
	}
	path := filepath.Join(home, genesisFile)
	if _, err := os.Stat(path); err == nil {
		logger.Info("Found genesis file", "path", path)
		return nil
	}
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal genesis")
	}
	if err := renameio.WriteFile(path, raw, 0600); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	logger.Info("Generated genesis file", "path", path, "chain", chainID)
	return nil
}

func newMarketOptions(fee, cut, collector string, maxRetries int) (*marketOptions, error) {
	listingFee, err := coin.ParseHumanFormat(fee)
	if err != nil {
		return nil, errors.Wrap(err, "listing fee")
	}
	platformCut, err := bazaar.ParseFractionString(cut)
	if err != nil {
		return nil, errors.Wrap(err, "platform cut")
	}
	addr, err := bazaar.ParseAddress(collector)
	if err != nil {
		return nil, errors.Wrap(err, "collector")
	}
	if maxRetries < 0 {
		return nil, errors.Wrap(errors.ErrInput, "max retries must not be negative")
	}
	conf := marketOptions{
		Policy: feepolicy.Policy{
			ListingFee:  &listingFee,
			PlatformCut: platformCut,
			Collector:   addr,
		},
		MaxRetries: maxRetries,
	}
	if err := conf.Policy.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func newGenesis(chainID string, conf *marketOptions, funds []cash.GenesisAccount) (*bazaar.Genesis, error) {
	rawConf, err := json.Marshal(map[string]*marketOptions{feepolicy.PkgName: conf})
	if err != nil {
		return nil, errors.Wrap(err, "marshal configuration")
	}
	if funds == nil {
		funds = []cash.GenesisAccount{}
	}
	rawFunds, err := json.Marshal(funds)
	if err != nil {
		return nil, errors.Wrap(err, "marshal accounts")
	}
	return &bazaar.Genesis{
		ChainID: chainID,
		AppOptions: bazaar.Options{
			"conf": rawConf,
			"cash": rawFunds,
		},
	}, nil
}

// loadGenesis reads the genesis file and the engine settings it declares.
func loadGenesis(home string) (*bazaar.Genesis, *marketOptions, error) {
	raw, err := ioutil.ReadFile(filepath.Join(home, genesisFile))
	if err != nil {
		return nil, nil, errors.Wrap(err, "read genesis, run init first")
	}
	var gen bazaar.Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	var conf bazaar.Options
	if err := gen.AppOptions.ReadOptions("conf", &conf); err != nil {
		return nil, nil, err
	}
	var opts marketOptions
	if err := conf.ReadOptions(feepolicy.PkgName, &opts); err != nil {
		return nil, nil, err
	}
	return &gen, &opts, nil
}
