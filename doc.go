/*
Package bazaar defines the vocabulary shared by the marketplace packages:
account addresses, conditions, fractions, storage interfaces and the
persistence contract of models.

The marketplace itself is composed from extensions living under x/ (asset
registry, listing ledger, fee policy, settlement, cash) and wired together by
the market package, which guarantees that every operation is applied
atomically and serialized per asset.
*/
package bazaar
