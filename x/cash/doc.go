/*
Package cash keeps the balances of all accounts. Every account holds a set of
coins, one entry per currency.

The market never creates or destroys value: payments move coins between
accounts. Coins enter the system only through the genesis file.
*/
package cash
