/*
Package feepolicy holds the fees charged by the market.

A policy defines the fixed toll paid when an asset is put up for sale and
the share of every sale that goes to the platform collector account. All
functions are pure; the policy itself is set once at genesis and stored in
the package configuration.
*/
package feepolicy
