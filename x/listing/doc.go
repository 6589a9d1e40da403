/*
Package listing implements the ledger of sale offers.

Listings are kept in an append-only arena. Every offer made for an asset is
stored under the asset id followed by a per asset sequence number, so the
full sale history of an asset stays readable after it was sold. Only the
most recent record of an asset may be open for sale.
*/
package listing
