package feepolicy

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/coin"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/gconf"
)

// PkgName is the configuration key of the policy, both in the genesis file
// and in the database.
const PkgName = "market"

// Policy declares market fees.
type Policy struct {
	// ListingFee must be attached verbatim to every listing request.
	ListingFee *coin.Coin `protobuf:"bytes,1,opt,name=listing_fee,json=listingFee,proto3" json:"listing_fee"`
	// PlatformCut is the share of a sale price paid to the collector.
	PlatformCut *bazaar.Fraction `protobuf:"bytes,2,opt,name=platform_cut,json=platformCut,proto3" json:"platform_cut,omitempty"`
	// Collector receives listing fees and platform cuts.
	Collector bazaar.Address `protobuf:"bytes,3,opt,name=collector,proto3,casttype=github.com/iov-one/bazaar.Address" json:"collector"`
}

var _ gconf.Configuration = (*Policy)(nil)

type policyMsg Policy

func (m *policyMsg) Reset()         { *m = policyMsg{} }
func (m *policyMsg) String() string { return proto.CompactTextString(m) }
func (*policyMsg) ProtoMessage()    {}

// Marshal serializes the policy using protobuf encoding.
func (p *Policy) Marshal() ([]byte, error) {
	return proto.Marshal((*policyMsg)(p))
}

// Unmarshal loads protobuf serialized policy.
func (p *Policy) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*policyMsg)(p))
}

// Validate ensures the policy can be applied.
func (p *Policy) Validate() error {
	var errs error
	if p.ListingFee == nil {
		errs = errors.AppendField(errs, "ListingFee", errors.ErrEmpty)
	} else if err := p.ListingFee.Validate(); err != nil {
		errs = errors.AppendField(errs, "ListingFee", err)
	} else if !p.ListingFee.IsNonNegative() {
		errs = errors.AppendField(errs, "ListingFee", errors.ErrAmount)
	}
	if p.PlatformCut != nil {
		if err := p.PlatformCut.Validate(); err != nil {
			errs = errors.AppendField(errs, "PlatformCut", err)
		} else if !p.PlatformCut.IsZero() && p.PlatformCut.Compare(bazaar.Fraction{Numerator: 1, Denominator: 1}) > 0 {
			errs = errors.Append(errs, errors.Field("PlatformCut", errors.ErrInput, "must not exceed 1"))
		}
	}
	errs = errors.AppendField(errs, "Collector", p.Collector.Validate())
	return errs
}

// CheckListingFee returns ErrInvalidFee unless attached is exactly the
// configured listing fee. Overpaying is rejected the same way as
// underpaying. A zero fee is matched by a zero amount of any currency.
func (p *Policy) CheckListingFee(attached coin.Coin) error {
	want := coin.Coin{}
	if p.ListingFee != nil {
		want = *p.ListingFee
	}
	if want.IsZero() && attached.IsZero() {
		return nil
	}
	if !attached.Equals(want) {
		return errors.Wrapf(errors.ErrInvalidFee, "want %s, got %s", want, attached)
	}
	return nil
}

// Cut returns the share of price that goes to the collector.
func (p *Policy) Cut(price coin.Coin) (coin.Coin, error) {
	_, cut, err := p.Split(price)
	return cut, err
}

// Split divides a sale price between the seller and the platform. Both
// parts sum exactly to price. The seller share is rounded down to the
// smallest fractional unit so that any remainder goes to the platform.
//
//   price 1 ETH, cut 1/40: seller 0.975 ETH, platform 0.025 ETH
func (p *Policy) Split(price coin.Coin) (seller, platform coin.Coin, err error) {
	if err := price.Validate(); err != nil {
		return seller, platform, errors.Wrap(err, "price")
	}
	if !price.IsNonNegative() {
		return seller, platform, errors.Wrap(errors.ErrAmount, "negative price")
	}
	if p.PlatformCut == nil || p.PlatformCut.IsZero() {
		return price, coin.Coin{Ticker: price.Ticker}, nil
	}

	cut := p.PlatformCut.Normalize()
	if err := cut.Validate(); err != nil {
		return seller, platform, errors.Wrap(err, "platform cut")
	}
	if cut.Numerator > cut.Denominator {
		return seller, platform, errors.Wrap(errors.ErrState, "platform cut exceeds 1")
	}
	keep := bazaar.Fraction{
		Numerator:   cut.Denominator - cut.Numerator,
		Denominator: cut.Denominator,
	}
	seller, err = price.MulFraction(keep)
	if err != nil {
		return seller, platform, errors.Wrap(err, "seller share")
	}
	platform, err = price.Subtract(seller)
	if err != nil {
		return seller, platform, errors.Wrap(err, "platform share")
	}
	return seller, platform, nil
}

// Load returns the policy stored in the database.
func Load(db gconf.ReadStore) (*Policy, error) {
	var p Policy
	if err := gconf.Load(db, PkgName, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Initializer fulfils the bazaar.Initializer interface. It stores the
// policy declared under conf.market in the genesis file.
type Initializer struct{}

var _ bazaar.Initializer = Initializer{}

// FromGenesis validates and saves the fee policy.
func (Initializer) FromGenesis(opts bazaar.Options, db bazaar.KVStore) error {
	return gconf.InitConfig(db, opts, PkgName, &Policy{})
}
