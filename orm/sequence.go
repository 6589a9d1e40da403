package orm

import (
	"encoding/binary"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
)

// Sequence maintains a counter, and generates a
// series of keys. Each key is greater than the last,
// both NextInt() as well as bytes.Compare() on NextVal().
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	id := "_s." + bucket + ":" + name
	return Sequence{
		id: []byte(id),
	}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s *Sequence) NextVal(db bazaar.KVStore) ([]byte, error) {
	_, bz, err := s.increment(db, 1)
	return bz, err
}

// NextInt increments the sequence and returns its state as int.
func (s *Sequence) NextInt(db bazaar.KVStore) (uint64, error) {
	val, _, err := s.increment(db, 1)
	return val, err
}

// Latest returns the recently returned value of the sequence. This method does
// not modify the sequence state. Use NextVal or NextInt to acquire a sequence
// value that was not given to anyone else.
func (s *Sequence) Latest(db bazaar.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, err
	}
	return DecodeSequence(raw)
}

func (s *Sequence) increment(db bazaar.KVStore, inc uint64) (uint64, []byte, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, nil, err
	}
	val, err := DecodeSequence(raw)
	if err != nil {
		return 0, nil, err
	}
	if val+inc < val {
		return 0, nil, errors.Wrap(errors.ErrOverflow, "sequence")
	}
	val += inc
	raw = EncodeSequence(val)
	err = db.Set(s.id, raw)
	return val, raw, err
}

// DecodeSequence parses an 8 byte big endian sequence value. Missing value
// is decoded as zero.
func DecodeSequence(bz []byte) (uint64, error) {
	if bz == nil {
		return 0, nil
	}
	if err := ValidateSequence(bz); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(bz), nil
}

// EncodeSequence serialize sequence value into 8 bytes using big endian.
func EncodeSequence(val uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, val)
	return bz
}

// ValidateSequence returns an error if this is not an 8-byte
// as expected for sequence generated keys.
func ValidateSequence(id []byte) error {
	if len(id) == 0 {
		return errors.Wrap(errors.ErrEmpty, "sequence missing")
	}
	if len(id) != 8 {
		return errors.Wrap(errors.ErrInput, "sequence is invalid length (expect 8 bytes)")
	}
	return nil
}
