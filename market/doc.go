/*
Package market composes the registry, the listing ledger, the fee policy and
settlement into an engine that can be called concurrently.

Every mutating operation runs against a private cache of the committed
state while recording what it read. Operations on the same asset are
serialized by a per asset lock. Operations on different assets run in
parallel and only meet on shared keys such as wallets or the id sequence;
a commit whose reads went stale is thrown away and executed again. A
failing operation never writes anything.
*/
package market
