package registry

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/orm"
)

// BucketName is where assets are stored.
const BucketName = "asset"

// Asset is a minted digital item.
type Asset struct {
	// ID is assigned at mint time from a sequence and never reused.
	ID uint64 `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	// Metadata is an opaque locator of the asset description.
	Metadata string `protobuf:"bytes,2,opt,name=metadata,proto3" json:"metadata"`
	// Creator is the account that minted the asset.
	Creator bazaar.Address `protobuf:"bytes,3,opt,name=creator,proto3,casttype=github.com/iov-one/bazaar.Address" json:"creator"`
	// Owner is the account currently holding the asset.
	Owner bazaar.Address `protobuf:"bytes,4,opt,name=owner,proto3,casttype=github.com/iov-one/bazaar.Address" json:"owner"`
}

type assetMsg Asset

func (m *assetMsg) Reset()         { *m = assetMsg{} }
func (m *assetMsg) String() string { return proto.CompactTextString(m) }
func (*assetMsg) ProtoMessage()    {}

// Marshal serializes the asset using protobuf encoding.
func (a *Asset) Marshal() ([]byte, error) {
	return proto.Marshal((*assetMsg)(a))
}

// Unmarshal loads protobuf serialized asset.
func (a *Asset) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*assetMsg)(a))
}

// Validate ensures the asset is complete. Metadata format is checked at
// mint time only.
func (a *Asset) Validate() error {
	var errs error
	if a.ID == 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	if a.Metadata == "" {
		errs = errors.AppendField(errs, "Metadata", errors.ErrInvalidMetadata)
	}
	errs = errors.AppendField(errs, "Creator", a.Creator.Validate())
	errs = errors.AppendField(errs, "Owner", a.Owner.Validate())
	return errs
}

// Key returns the primary key the asset is stored under.
func (a *Asset) Key() []byte {
	return AssetKey(a.ID)
}

// AssetKey returns the primary key of the asset with given id.
func AssetKey(id uint64) []byte {
	return orm.EncodeSequence(id)
}

func ownerIndexer(m orm.Model) ([]byte, error) {
	a, ok := m.(*Asset)
	if !ok {
		return nil, errors.WithType(errors.ErrType, m)
	}
	return a.Owner, nil
}

func creatorIndexer(m orm.Model) ([]byte, error) {
	a, ok := m.(*Asset)
	if !ok {
		return nil, errors.WithType(errors.ErrType, m)
	}
	return a.Creator, nil
}

// NewBucket returns a bucket for assets, indexed by owner and creator.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Asset{},
		orm.WithIndex("owner", ownerIndexer),
		orm.WithIndex("creator", creatorIndexer),
	)
}
