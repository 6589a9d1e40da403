package bazaar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iov-one/bazaar/errors"
)

// Fraction is a rational number in the [0, inf) range.
type Fraction struct {
	Numerator   uint32 `protobuf:"varint,1,opt,name=numerator,proto3" json:"numerator,omitempty"`
	Denominator uint32 `protobuf:"varint,2,opt,name=denominator,proto3" json:"denominator,omitempty"`
}

// String returns a human readable fraction representation.
func (f *Fraction) String() string {
	if f == nil {
		return "nil"
	}
	if f.Numerator == 0 {
		return "0"
	}
	if f.Denominator == 1 {
		return fmt.Sprint(f.Numerator)
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

func (f Fraction) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Fraction) UnmarshalJSON(raw []byte) error {
	// Prioritize human readable format.
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		frac, err := ParseFractionString(human)
		if err != nil {
			return errors.Wrap(err, "fraction string")
		}
		*f = *frac
		return nil
	}

	var frac struct {
		Numerator   uint32
		Denominator uint32
	}
	if err := json.Unmarshal(raw, &frac); err != nil {
		return err
	}
	f.Numerator = frac.Numerator
	f.Denominator = frac.Denominator
	return nil
}

// Validate returns an error if this fraction represents an invalid value.
func (f Fraction) Validate() error {
	if f.Denominator == 0 && f.Numerator != 0 {
		return errors.Wrap(errors.ErrState, "zero division")
	}
	return nil
}

// IsZero returns true if the fraction represents the value zero.
func (f Fraction) IsZero() bool {
	return f.Numerator == 0
}

// Compare returns 1 if f is greater than o, -1 if it is smaller and 0 if
// both represent the same value. Both fractions must be valid.
func (f Fraction) Compare(o Fraction) int {
	l := uint64(f.Numerator) * uint64(o.Denominator)
	r := uint64(o.Numerator) * uint64(f.Denominator)
	switch {
	case l > r:
		return 1
	case l < r:
		return -1
	default:
		return 0
	}
}

// Normalize returns a new fraction instance that has its numerator and
// denominator reduced to the smallest possible representation.
func (f Fraction) Normalize() Fraction {
	div := uintGcd(f.Numerator, f.Denominator)
	if div == 0 {
		return f
	}
	return Fraction{
		Numerator:   f.Numerator / div,
		Denominator: f.Denominator / div,
	}
}

func uintGcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ParseFractionString returns a fraction value that is represented by given
// string, for example "1/40" or "0".
// This fuction does not fail if representation format is correct but the value
// is invalid (i.e. value of "2/0").
func ParseFractionString(raw string) (*Fraction, error) {
	chunks := strings.SplitN(raw, "/", 2)
	n, err := strconv.ParseUint(chunks[0], 10, 32)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "numerator")
	}
	if len(chunks) == 1 {
		return &Fraction{Numerator: uint32(n), Denominator: 1}, nil
	}
	d, err := strconv.ParseUint(chunks[1], 10, 32)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "denominator")
	}
	return &Fraction{Numerator: uint32(n), Denominator: uint32(d)}, nil
}
