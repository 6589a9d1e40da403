/*
Package bazaartest provides helpers for testing bazaar packages.
*/
package bazaartest
