package coin

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/bazaar"
	"github.com/iov-one/bazaar/errors"
)

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

const (
	// MaxInt is the largest whole value we accept
	MaxInt int64 = 999999999999999 // 10^15-1
	// MinInt is the lowest whole value we accept
	MinInt = -MaxInt

	// FracUnit is the smallest numbers we divide by
	FracUnit int64 = 1000000000 // fractional units = 10^9
	// MaxFrac is the highest possible fractional value
	MaxFrac = FracUnit - 1
	// MinFrac is the lowest possible fractional value
	MinFrac = -MaxFrac
)

// NewCoin creates a new coin object
func NewCoin(whole int64, fractional int64, ticker string) Coin {
	return Coin{
		Whole:      whole,
		Fractional: fractional,
		Ticker:     ticker,
	}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(whole, fractional int64, ticker string) *Coin {
	c := NewCoin(whole, fractional, ticker)
	return &c
}

// ID returns a coin ticker name.
func (c Coin) ID() string {
	return c.Ticker
}

// Add combines two coins.
// Returns error if they are of different
// currencies, or if the combination would cause
// an overflow
func (c Coin) Add(o Coin) (Coin, error) {
	// A zero value without a ticker has no influence on the result.
	if c.Ticker == "" && c.IsZero() {
		return o, nil
	}
	if o.Ticker == "" && o.IsZero() {
		return c, nil
	}

	if !c.SameType(o) {
		err := errors.Wrapf(errors.ErrCurrency, "adding %s to %s", c.Ticker, o.Ticker)
		return Coin{}, err
	}

	c.Whole += o.Whole
	c.Fractional += o.Fractional
	return c.normalize()
}

// Negative returns the opposite coins value
//   c.Add(c.Negative()).IsZero() == true
func (c Coin) Negative() Coin {
	return Coin{
		Ticker:     c.Ticker,
		Whole:      -1 * c.Whole,
		Fractional: -1 * c.Fractional,
	}
}

// Subtract given amount.
func (c Coin) Subtract(amount Coin) (Coin, error) {
	return c.Add(amount.Negative())
}

// MulFraction returns the value of this coin multiplied by given fraction,
// rounded down to the smallest fractional unit. Only non-negative coins can
// be multiplied.
//
//   10 IOV x 1/40 = 0.25 IOV
func (c Coin) MulFraction(f bazaar.Fraction) (Coin, error) {
	if err := f.Validate(); err != nil {
		return Coin{}, errors.Wrap(err, "fraction")
	}
	if !c.IsNonNegative() {
		return Coin{}, errors.Wrap(errors.ErrAmount, "negative coin")
	}
	if f.IsZero() {
		return Coin{Ticker: c.Ticker}, nil
	}

	units := c.units()
	units.Mul(units, new(big.Int).SetUint64(uint64(f.Numerator)))
	// Quo truncates towards zero, which for non-negative values is floor.
	units.Quo(units, new(big.Int).SetUint64(uint64(f.Denominator)))
	return fromUnits(units, c.Ticker)
}

// units returns the coin value expressed in fractional units.
func (c Coin) units() *big.Int {
	u := new(big.Int).Mul(big.NewInt(c.Whole), big.NewInt(FracUnit))
	return u.Add(u, big.NewInt(c.Fractional))
}

func fromUnits(u *big.Int, ticker string) (Coin, error) {
	whole, frac := new(big.Int).QuoRem(u, big.NewInt(FracUnit), new(big.Int))
	if !whole.IsInt64() {
		return Coin{}, errors.ErrOverflow
	}
	return Coin{
		Ticker:     ticker,
		Whole:      whole.Int64(),
		Fractional: frac.Int64(),
	}.normalize()
}

// Compare will check values of two coins, without
// inspecting the currency code. It is up to the caller
// to determine if they want to check this.
// It also assumes they were already normalized.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	switch {
	case c.Whole > o.Whole:
		return 1
	case c.Whole < o.Whole:
		return -1
	case c.Fractional > o.Fractional:
		return 1
	case c.Fractional < o.Fractional:
		return -1
	default:
		return 0
	}
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker &&
		c.Whole == o.Whole &&
		c.Fractional == o.Fractional
}

// IsEmpty returns true on null or zero amount
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.Whole == 0 && c.Fractional == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.Whole > 0 ||
		(c.Whole == 0 && c.Fractional > 0)
}

// IsNonNegative returns true if the value is 0 or higher
func (c Coin) IsNonNegative() bool {
	return c.Whole >= 0 && c.Fractional >= 0
}

// IsGTE returns true if c is same type and at least
// as large as o.
// It assumes they were already normalized.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Compare(o) >= 0
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cpy := *c
	return &cpy
}

// Validate ensures that the coin is in the valid range
// and valid currency code. It accepts negative values,
// so you may want to make other checks in your business
// logic
func (c Coin) Validate() error {
	var err error
	if !IsCC(c.Ticker) {
		err = errors.Append(err, errors.Wrapf(errors.ErrCurrency, "invalid currency: %s", c.Ticker))
	}
	if c.Whole < MinInt || c.Whole > MaxInt {
		err = errors.Append(err, errors.ErrOverflow)
	}
	if c.Fractional < MinFrac || c.Fractional > MaxFrac {
		err = errors.Append(err, errors.Wrap(errors.ErrOverflow, "fractional"))
	}
	// make sure signs match
	if c.Whole != 0 && c.Fractional != 0 &&
		((c.Whole > 0) != (c.Fractional > 0)) {
		err = errors.Append(err, errors.Wrap(errors.ErrState, "mismatched sign"))
	}

	return err
}

// normalize will adjust the fractional parts to
// correspond to the range and the integer parts.
//
// If the normalized coin is outside of the range,
// returns an error
func (c Coin) normalize() (Coin, error) {
	// keep fraction in range
	for c.Fractional < MinFrac {
		c.Whole--
		c.Fractional += FracUnit
	}
	for c.Fractional > MaxFrac {
		c.Whole++
		c.Fractional -= FracUnit
	}

	// make sure the signs correspond
	if (c.Whole > 0) && (c.Fractional < 0) {
		c.Whole--
		c.Fractional += FracUnit
	} else if (c.Whole < 0) && (c.Fractional > 0) {
		c.Whole++
		c.Fractional -= FracUnit
	}

	// return error if integer is out of range
	if c.Whole < MinInt || c.Whole > MaxInt {
		return Coin{}, errors.ErrOverflow
	}
	return c, nil
}

// UnmarshalJSON accepts both the human readable string format and the
// object notation.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	// Because UnmarshalJSON method is provided, we can no longer use Coin
	// type for this.
	var coin struct {
		Whole      int64  `json:"whole"`
		Fractional int64  `json:"fractional"`
		Ticker     string `json:"ticker"`
	}
	if err := json.Unmarshal(raw, &coin); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	*c = NewCoin(coin.Whole, coin.Fractional, coin.Ticker)
	return nil
}

// String provides a human readable representation of the coin. For a valid
// coin the result is a valid human readable format that can be parsed back.
func (c Coin) String() string {
	var b bytes.Buffer

	if n, err := c.normalize(); err == nil {
		c = n
	}

	if c.Whole == 0 && c.Fractional < 0 {
		io.WriteString(&b, "-")
	}
	io.WriteString(&b, strconv.FormatInt(c.Whole, 10))

	if f := c.Fractional; f != 0 {
		if f < 0 {
			f = -f
		}
		s := strconv.FormatInt(f, 10)
		// Add leading zeros to convert it to a floating point number.
		s = "." + strings.Repeat("0", 9-len(s)) + s
		// Remove trailing zeros as they provide no information.
		s = strings.TrimRight(s, "0")

		io.WriteString(&b, s)
	}

	if c.Ticker != "" {
		io.WriteString(&b, " "+c.Ticker)
	}

	return b.String()
}

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//   "<whole>[.<fractional>] <ticker>"
// Fractional part can have at most 9 digits.
func ParseHumanFormat(h string) (Coin, error) {
	results := humanCoinFormatRx.FindStringSubmatch(strings.TrimSpace(h))
	if results == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	sign, wholeStr, fracStr, ticker := results[1], results[2], results[3], results[4]

	whole, err := strconv.ParseInt(wholeStr, 10, 64)
	if err != nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid whole value: %s", err)
	}

	var fract int64
	if fracStr != "" {
		digits := fracStr[1:]
		if len(digits) > 9 {
			return Coin{}, errors.Wrap(errors.ErrInput, "fractional value too precise")
		}
		digits += strings.Repeat("0", 9-len(digits))
		fract, err = strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return Coin{}, errors.Wrapf(errors.ErrInput, "invalid fractional value: %s", err)
		}
	}

	if sign == "-" {
		whole = -whole
		fract = -fract
	}
	c := Coin{
		Ticker:     ticker,
		Whole:      whole,
		Fractional: fract,
	}
	if c.Whole > MaxInt || c.Whole < MinInt {
		return Coin{}, errors.Wrap(errors.ErrOverflow, "whole value")
	}
	return c, nil
}

var humanCoinFormatRx = regexp.MustCompile(`^(\-?)\s*(\d+)(\.\d+)?\s*([A-Z]{3,4})$`)

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
