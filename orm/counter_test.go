package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/bazaar/errors"
)

// Counter is a simple model used by the tests.
type Counter struct {
	Count int64  `protobuf:"varint,1,opt,name=count,proto3" json:"count,omitempty"`
	Owner []byte `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner,omitempty"`
}

type counterMsg Counter

func (m *counterMsg) Reset()         { *m = counterMsg{} }
func (m *counterMsg) String() string { return proto.CompactTextString(m) }
func (*counterMsg) ProtoMessage()    {}

func (c *Counter) Marshal() ([]byte, error) {
	return proto.Marshal((*counterMsg)(c))
}

func (c *Counter) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*counterMsg)(c))
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative count")
	}
	return nil
}

func ownerIndexer(m Model) ([]byte, error) {
	c, ok := m.(*Counter)
	if !ok {
		return nil, errors.WithType(errors.ErrType, m)
	}
	return c.Owner, nil
}

// Other is a model of a different type, used to test type checks.
type Other struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
}

type otherMsg Other

func (m *otherMsg) Reset()         { *m = otherMsg{} }
func (m *otherMsg) String() string { return proto.CompactTextString(m) }
func (*otherMsg) ProtoMessage()    {}

func (o *Other) Marshal() ([]byte, error)   { return proto.Marshal((*otherMsg)(o)) }
func (o *Other) Unmarshal(raw []byte) error { return proto.Unmarshal(raw, (*otherMsg)(o)) }
func (o *Other) Validate() error            { return nil }
