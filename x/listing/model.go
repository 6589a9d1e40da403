package listing

import (
	"encoding/binary"
	"encoding/json"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
)

// BucketName is where listings are stored.
const BucketName = "listing"

// State is the lifecycle stage of a listing.
type State int32

const (
	// Listed means the asset can be bought.
	Listed State = 1
	// Sold means the offer was taken and is kept as history.
	Sold State = 2
)

var stateNames = map[State]string{
	Listed: "listed",
	Sold:   "sold",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Validate returns an error for an unknown state.
func (s State) Validate() error {
	if _, ok := stateNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "unknown listing state %d", s)
	}
	return nil
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *State) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	for st, n := range stateNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown listing state %q", name)
}

// Listing is an offer to sell an asset.
type Listing struct {
	AssetID uint64 `protobuf:"varint,1,opt,name=asset_id,json=assetId,proto3" json:"asset_id"`
	// Seq numbers listings of the same asset, starting at 1.
	Seq    uint64         `protobuf:"varint,2,opt,name=seq,proto3" json:"seq"`
	Seller bazaar.Address `protobuf:"bytes,3,opt,name=seller,proto3,casttype=github.com/iov-one/bazaar.Address" json:"seller"`
	Price  *coin.Coin     `protobuf:"bytes,4,opt,name=price,proto3" json:"price"`
	State  State          `protobuf:"varint,5,opt,name=state,proto3,casttype=State" json:"state"`
	// Fee is the listing fee paid by the seller.
	Fee *coin.Coin `protobuf:"bytes,6,opt,name=fee,proto3" json:"fee,omitempty"`
	// Buyer is set once the listing is sold.
	Buyer bazaar.Address `protobuf:"bytes,7,opt,name=buyer,proto3,casttype=github.com/iov-one/bazaar.Address" json:"buyer,omitempty"`
}

type listingMsg Listing

func (m *listingMsg) Reset()         { *m = listingMsg{} }
func (m *listingMsg) String() string { return proto.CompactTextString(m) }
func (*listingMsg) ProtoMessage()    {}

// Marshal serializes the listing using protobuf encoding.
func (l *Listing) Marshal() ([]byte, error) {
	return proto.Marshal((*listingMsg)(l))
}

// Unmarshal loads protobuf serialized listing.
func (l *Listing) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*listingMsg)(l))
}

// Validate ensures the listing is consistent.
func (l *Listing) Validate() error {
	var errs error
	if l.AssetID == 0 {
		errs = errors.AppendField(errs, "AssetID", errors.ErrEmpty)
	}
	if l.Seq == 0 {
		errs = errors.AppendField(errs, "Seq", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Seller", l.Seller.Validate())
	errs = errors.AppendField(errs, "Price", validPrice(l.Price))
	errs = errors.AppendField(errs, "State", l.State.Validate())
	if l.Fee != nil {
		errs = errors.AppendField(errs, "Fee", l.Fee.Validate())
	}
	switch {
	case l.State == Sold:
		errs = errors.AppendField(errs, "Buyer", l.Buyer.Validate())
	case len(l.Buyer) != 0:
		errs = errors.Append(errs, errors.Field("Buyer", errors.ErrState, "open listing cannot have a buyer"))
	}
	return errs
}

func validPrice(c *coin.Coin) error {
	if c == nil {
		return errors.ErrEmpty
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative price")
	}
	return nil
}

// Key returns the primary key of the listing.
func (l *Listing) Key() []byte {
	return listingKey(l.AssetID, l.Seq)
}

func listingKey(assetID, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key, assetID)
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

func assetPrefix(assetID uint64) []byte {
	return orm.EncodeSequence(assetID)
}

// activeIndexer puts every open listing under the same value. Iterating
// the index yields open listings ordered by asset id.
func activeIndexer(m orm.Model) ([]byte, error) {
	l, ok := m.(*Listing)
	if !ok {
		return nil, errors.WithType(errors.ErrType, m)
	}
	if l.State != Listed {
		return nil, nil
	}
	return activeValue, nil
}

var activeValue = []byte("listed")

// NewBucket returns the listing arena, indexed by open state.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Listing{},
		orm.WithIndex("active", activeIndexer),
	)
}
