package bazaartest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/bazaar"
)

// ParseAddress takes an address in a human readable format and returns its
// binary representation. Parsing failure fails the test.
func ParseAddress(t testing.TB, encodedAddress string) bazaar.Address {
	t.Helper()

	addr, err := bazaar.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

// NewCondition returns a random condition, useful to build accounts that
// are not expected to collide.
func NewCondition() bazaar.Condition {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return bazaar.NewCondition("test", "rand", b)
}

// RandomAddr returns the address of a random condition.
func RandomAddr() bazaar.Address {
	return NewCondition().Address()
}

// SequenceID returns an 8 byte big endian representation of given value.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}
