package bazaar

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/bazaar/errors"
)

const (
	// AddressLength is the length of all addresses.
	AddressLength = 20

	// AddressHRP is the human readable part of bech32 encoded addresses.
	AddressHRP = "bzr"
)

// it must have (?s) flags, otherwise it errors when last section contains 0x20 (newline)
var perm = regexp.MustCompile(`(?s)^([a-zA-Z0-9_\-]{3,8})/([a-zA-Z0-9_\-]{3,8})/(.+)$`)

// Condition is a specially formatted array, describing an account that is
// not controlled by a key but by an extension. It is of the format:
//
//   sprintf("%s/%s/%s", extension, type, data)
//
// Escrow accounts of the settlement extension are conditions.
type Condition []byte

// NewCondition returns a condition for given extension, type and data.
func NewCondition(ext, typ string, data []byte) Condition {
	pre := fmt.Sprintf("%s/%s/", ext, typ)
	return append([]byte(pre), data...)
}

// Parse will extract the sections from the Condition bytes
// and verify it is properly formatted
func (c Condition) Parse() (string, string, []byte, error) {
	chunks := perm.FindSubmatch(c)
	if len(chunks) == 0 {
		return "", "", nil, errors.ErrInput.Newf("condition: %X", []byte(c))
	}
	return string(chunks[1]), string(chunks[2]), chunks[3], nil
}

// Address will convert a Condition into an Address
func (c Condition) Address() Address {
	return NewAddress(c)
}

// String returns a human readable string. Extension and type are kept in
// ascii, data is hex encoded.
func (c Condition) String() string {
	ext, typ, data, err := c.Parse()
	if err != nil {
		return fmt.Sprintf("Invalid Condition: %X", []byte(c))
	}
	return fmt.Sprintf("%s/%s/%X", ext, typ, data)
}

// Validate returns an error if the Condition is not the proper format
func (c Condition) Validate() error {
	if !perm.Match(c) {
		return errors.ErrInput.Newf("condition: %X", []byte(c))
	}
	return nil
}

// Address identifies an account. It is either chosen by the caller (for
// key controlled accounts) or derived from a Condition.
//
// It will be of size AddressLength
type Address []byte

// NewAddress hashes and truncates into the proper size
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := sha256.Sum256(data)
	return h[:AddressLength]
}

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Clone returns an independent copy of the address.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	return append(Address(nil), a...)
}

// String returns the bech32 representation of the address.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	conv, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(a))
	}
	enc, err := bech32.Encode(AddressHRP, conv)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(a))
	}
	return enc
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.ErrInput.Newf("address: %X", []byte(a))
	}
	return nil
}

// MarshalJSON serializes the address using its bech32 form.
func (a Address) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts any representation supported by ParseAddress.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	if len(enc) == 0 {
		*a = nil
		return nil
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes an address. Accepted formats are bech32 (with the
// bzr prefix), hex, and the explicit "hex:", "bech32:" and "cond:" prefixed
// forms. A condition is converted to its address.
func ParseAddress(enc string) (Address, error) {
	format := "hex"
	if chunks := strings.SplitN(enc, ":", 2); len(chunks) == 2 {
		format, enc = chunks[0], chunks[1]
	} else if strings.HasPrefix(strings.ToLower(enc), AddressHRP+"1") {
		format = "bech32"
	}

	var addr Address
	switch format {
	case "hex":
		val, err := hex.DecodeString(enc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
		}
		addr = val
	case "bech32":
		hrp, payload, err := bech32.Decode(enc)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "bech32 decode: %s", err)
		}
		if hrp != AddressHRP {
			return nil, errors.Wrapf(errors.ErrInput, "unexpected prefix %q", hrp)
		}
		payload, err = bech32.ConvertBits(payload, 5, 8, false)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "convert bits: %s", err)
		}
		addr = payload
	case "cond":
		c, err := parseCondition(enc)
		if err != nil {
			return nil, err
		}
		addr = c.Address()
	default:
		return nil, errors.ErrType.Newf("unknown format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// parseCondition reads the String representation of a condition.
func parseCondition(source string) (Condition, error) {
	args := strings.SplitN(source, "/", 3)
	if len(args) != 3 {
		return nil, errors.ErrInput.New("invalid condition format")
	}
	data, err := hex.DecodeString(args[2])
	if err != nil {
		return nil, errors.ErrInput.Newf("malformed condition data: %s", err)
	}
	c := NewCondition(args[0], args[1], data)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
