/*
Package settlement exchanges payment for asset ownership.

A purchase first moves the buyer payment into an escrow account derived
from the asset id. From there the seller proceeds, the platform cut and
any overpayment refund are paid out, the asset changes hands and its
listing is closed. All of this is written to a single store, so the caller
decides whether the whole exchange is committed or dropped.
*/
package settlement
