package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set contains the coins held by one account.
type Set struct {
	Coins []*coin.Coin `protobuf:"bytes,1,rep,name=coins,proto3" json:"coins,omitempty"`
}

type setMsg Set

func (m *setMsg) Reset()         { *m = setMsg{} }
func (m *setMsg) String() string { return proto.CompactTextString(m) }
func (*setMsg) ProtoMessage()    {}

// Marshal serializes the set using protobuf encoding.
func (s *Set) Marshal() ([]byte, error) {
	return proto.Marshal((*setMsg)(s))
}

// Unmarshal loads protobuf serialized set.
func (s *Set) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*setMsg)(s))
}

// Validate requires that all coins are in alphabetical order, valid and
// positive.
func (s *Set) Validate() error {
	cs := coin.Coins(s.Coins)
	if err := cs.Validate(); err != nil {
		return err
	}
	if !cs.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative balance")
	}
	return nil
}

// Add returns a new set with the amount added.
func (s *Set) Add(c coin.Coin) (*Set, error) {
	cs, err := coin.Coins(s.Coins).Add(c)
	if err != nil {
		return nil, err
	}
	return &Set{Coins: cs}, nil
}

// Subtract returns a new set with the amount removed.
func (s *Set) Subtract(c coin.Coin) (*Set, error) {
	return s.Add(c.Negative())
}

// NewBucket returns a bucket for storing account balances, keyed by the
// account address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Set{})
}
