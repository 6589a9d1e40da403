package market

import (
	"context"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/store"
	"github.com/iov-one/bazaar/x/cash"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/iov-one/bazaar/x/listing"
	"github.com/iov-one/bazaar/x/registry"
	"github.com/iov-one/bazaar/x/settlement"
	"github.com/tendermint/tendermint/libs/log"
)

// Engine is the market. All methods are safe for concurrent use.
type Engine struct {
	// mu guards db. Operations read under the read lock and commit under
	// the write lock.
	mu sync.RWMutex
	db bazaar.KVStore
	// committer is set when db persists versions.
	committer bazaar.CommitKVStore

	policy   *feepolicy.Policy
	registry *registry.Registry
	ledger   *listing.Ledger
	settler  *settlement.Settler
	wallets  cash.Controller

	locks      *lockTable
	maxRetries int
	logger     log.Logger
	bus        EventBus.Bus
}

// NewEngine returns an engine operating on db. If db is a
// bazaar.CommitKVStore, every successful operation is committed as a new
// version.
func NewEngine(db bazaar.KVStore, conf Config) (*Engine, error) {
	if db == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "store")
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	conf = conf.withDefaults()

	policy := &feepolicy.Policy{
		ListingFee: conf.Policy.ListingFee.Clone(),
		Collector:  conf.Policy.Collector.Clone(),
	}
	if conf.Policy.PlatformCut != nil {
		cut := *conf.Policy.PlatformCut
		policy.PlatformCut = &cut
	}

	wallets := cash.NewController(cash.NewBucket())
	reg, mover := registry.NewRegistry(conf.Metadata)
	ledger, closer := listing.NewLedger(reg, policy, wallets)

	e := &Engine{
		db:         db,
		policy:     policy,
		registry:   reg,
		ledger:     ledger,
		settler:    settlement.NewSettler(ledger, closer, mover, policy, wallets),
		wallets:    wallets,
		locks:      newLockTable(),
		maxRetries: conf.MaxRetries,
		logger:     conf.Logger.With("module", "market"),
		bus:        conf.Bus,
	}
	if c, ok := db.(bazaar.CommitKVStore); ok {
		e.committer = c
	}
	return e, nil
}

// Policy returns a copy of the fee policy in use.
func (e *Engine) Policy() feepolicy.Policy {
	p := feepolicy.Policy{
		ListingFee: e.policy.ListingFee.Clone(),
		Collector:  e.policy.Collector.Clone(),
	}
	if e.policy.PlatformCut != nil {
		cut := *e.policy.PlatformCut
		p.PlatformCut = &cut
	}
	return p
}

func (e *Engine) log(ctx context.Context) log.Logger {
	if l := bazaar.LoggerOr(ctx, nil); l != nil {
		return l.With("module", "market")
	}
	return e.logger
}

// txn is the state of a single operation execution.
type txn struct {
	bazaar.KVStore
	ctx   context.Context
	locks *lockTable
	held  map[uint64]func()
	// exclusive is set when the execution holds the store write lock.
	exclusive bool
}

// lockAsset acquires the lock of the asset for the rest of the operation.
// Locks survive re-execution after a conflict.
//
// An exclusive execution cannot be interleaved with any commit and skips
// acquiring new locks, as waiting for them could deadlock with an
// operation blocked on the store lock.
func (tx *txn) lockAsset(id uint64) error {
	if _, ok := tx.held[id]; ok || tx.exclusive {
		return nil
	}
	unlock, err := tx.locks.Lock(tx.ctx, id)
	if err != nil {
		return err
	}
	tx.held[id] = unlock
	return nil
}

// exec runs fn until it commits or fails. Writes of fn are only visible to
// others once exec returns nil.
//
// fn is first executed optimistically, concurrently with other
// operations. After maxRetries conflicting attempts it is executed one last
// time while holding the store write lock, which cannot conflict.
func (e *Engine) exec(ctx context.Context, op string, fn func(tx *txn) error) error {
	held := make(map[uint64]func())
	defer func() {
		for _, unlock := range held {
			unlock()
		}
	}()

	logger := e.log(ctx)
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, op)
		}

		tracker := store.NewReadTracker(store.NewSyncReader(e.db, &e.mu))
		cache := store.NewBTreeCacheWrap(tracker, e.db.NewBatch(), nil)
		tx := &txn{KVStore: cache, ctx: ctx, locks: e.locks, held: held}

		err := fn(tx)
		if err == nil {
			err = e.commit(tracker, cache)
		} else {
			cache.Discard()
			// A failure computed from stale reads is retried as well.
			if !errors.ErrConflict.Is(err) && e.stale(tracker) {
				err = errors.Wrap(errors.ErrConflict, err.Error())
			}
		}

		switch {
		case err == nil:
			return nil
		case errors.ErrConflict.Is(err):
			logger.Debug("conflict, executing again", "op", op, "attempt", attempt+1, "err", err)
		default:
			logger.Debug("rejected", "op", op, "err", err)
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, op)
	}
	logger.Debug("executing exclusively", "op", op)
	if err := e.execExclusive(ctx, held, fn); err != nil {
		logger.Debug("rejected", "op", op, "err", err)
		return err
	}
	return nil
}

// commit writes the cache if nothing it was computed from changed.
func (e *Engine) commit(tracker *store.ReadTracker, cache store.BTreeCacheWrap) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := tracker.Validate(e.db); err != nil {
		cache.Discard()
		return err
	}
	return e.write(cache)
}

func (e *Engine) execExclusive(ctx context.Context, held map[uint64]func(), fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cache := store.NewBTreeCacheWrap(e.db, e.db.NewBatch(), nil)
	tx := &txn{KVStore: cache, ctx: ctx, locks: e.locks, held: held, exclusive: true}
	if err := fn(tx); err != nil {
		cache.Discard()
		return err
	}
	return e.write(cache)
}

// write must be called with the write lock held. A failed write leaves db
// at the last committed version.
func (e *Engine) write(cache store.BTreeCacheWrap) error {
	if err := cache.Write(); err != nil {
		err = errors.Wrap(err, "write")
		e.rollback(err)
		return err
	}
	if e.committer != nil {
		if _, err := e.committer.Commit(); err != nil {
			err = errors.Wrap(err, "commit")
			e.rollback(err)
			return err
		}
	}
	return nil
}

// rollbacker drops writes done since the last commit.
type rollbacker interface {
	Rollback()
}

// rollback restores db after a failed write. A store that cannot drop
// partial writes is left in an unknown state, which is not recoverable.
func (e *Engine) rollback(cause error) {
	if r, ok := e.db.(rollbacker); ok {
		r.Rollback()
		return
	}
	panic(errors.Wrapf(errors.ErrDatabase, "cannot roll back: %s", cause))
}

func (e *Engine) stale(tracker *store.ReadTracker) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return tracker.Validate(e.db) != nil
}

// view runs fn on the last committed state. Writers wait until fn returns.
func (e *Engine) view(ctx context.Context, fn func(db bazaar.ReadOnlyKVStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.db)
}
