/*
Package registry keeps the identity of every minted asset.

An asset is created once by Mint and from then on only its owner can
change. Ownership can only be changed through the Transferer returned
together with the Registry, so the package handing it out decides who is
allowed to move assets.
*/
package registry
