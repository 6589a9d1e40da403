package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/market"
	"github.com/iov-one/bazaar/store"
	"github.com/iov-one/bazaar/store/iavl"
	"github.com/iov-one/bazaar/x/cash"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/iov-one/bazaar/x/metadata"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/time/rate"
)

const (
	flagBind    = "bind"
	flagRate    = "rate"
	flagBurst   = "burst"
	flagSchemes = "schemes"
)

type startOptions struct {
	bind    string
	rate    float64
	burst   int
	schemes string
}

func parseStartFlags(args []string) (startOptions, error) {
	var opts startOptions
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&opts.bind, flagBind, "localhost:8000", "address the HTTP API listens on")
	fs.Float64Var(&opts.rate, flagRate, 100, "requests per second allowed")
	fs.IntVar(&opts.burst, flagBurst, 50, "requests allowed at once above the rate")
	fs.StringVar(&opts.schemes, flagSchemes, "", "comma separated metadata URI schemes, any if empty")
	if err := fs.Parse(args); err != nil {
		return opts, errors.Wrap(errors.ErrInput, err.Error())
	}
	return opts, nil
}

// StartCmd opens the market state in the home directory and serves the
// HTTP API until interrupted.
func StartCmd(logger log.Logger, home string, args []string) error {
	opts, err := parseStartFlags(args)
	if err != nil {
		return err
	}

	engine, closeStore, err := OpenMarket(logger, home, opts.schemes)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter := rate.NewLimiter(rate.Limit(opts.rate), opts.burst)
	srv := &http.Server{
		Addr:    opts.bind,
		Handler: NewRouter(engine, limiter, logger),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP API", "bind", opts.bind)
		errc <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")
	case s := <-sig:
		logger.Info("Shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Requests in flight finish before the store is closed.
	return srv.Shutdown(ctx)
}

// OpenMarket loads the persistent state from the home directory. A fresh
// state is initialized from the genesis file first. The returned function
// closes the store once the engine is no longer used.
func OpenMarket(logger log.Logger, home, schemes string) (*market.Engine, func(), error) {
	gen, conf, err := loadGenesis(home)
	if err != nil {
		return nil, nil, err
	}

	db, err := iavl.NewCommitStore(filepath.Join(home, "data"), "market")
	if err != nil {
		return nil, nil, err
	}
	engine, err := openEngine(logger, db, gen, conf, schemes)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return engine, db.Close, nil
}

func openEngine(logger log.Logger, db *iavl.CommitStore, gen *bazaar.Genesis, conf *marketOptions, schemes string) (*market.Engine, error) {
	if err := db.LoadLatestVersion(); err != nil {
		return nil, err
	}
	if err := initState(logger, db, gen); err != nil {
		return nil, err
	}

	policy, err := feepolicy.Load(db)
	if err != nil {
		return nil, errors.Wrap(err, "load fee policy")
	}

	validator := metadata.NewValidator()
	if schemes != "" {
		validator.Schemes = strings.Split(schemes, ",")
	}
	return market.NewEngine(db, market.Config{
		Policy:     *policy,
		MaxRetries: conf.MaxRetries,
		Metadata:   validator,
		Logger:     logger,
	})
}

// initState applies the genesis to a store that has never been committed.
func initState(logger log.Logger, db store.CommitKVStore, gen *bazaar.Genesis) error {
	latest, err := db.LatestVersion()
	if err != nil {
		return err
	}
	if latest.Version != 0 {
		logger.Info("Loaded state", "version", latest.Version)
		return nil
	}

	inits := bazaar.ChainInitializers(cash.Initializer{}, feepolicy.Initializer{})
	if err := inits.FromGenesis(gen.AppOptions, db); err != nil {
		return errors.Wrap(err, "genesis")
	}
	id, err := db.Commit()
	if err != nil {
		return err
	}
	logger.Info("Initialized state", "chain", gen.ChainID, "version", id.Version)
	return nil
}
