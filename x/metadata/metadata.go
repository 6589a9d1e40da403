/*
Package metadata validates asset metadata locators. A locator is an opaque
reference to descriptive data kept outside of the market, usually a content
addressed URI such as ipfs://<cid>. It is never interpreted beyond the
checks done here.
*/
package metadata

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iov-one/bazaar/errors"
)

// DefaultMaxLength is the longest locator accepted by the default
// validator.
const DefaultMaxLength = 2048

// Validator checks that a locator is present and well formed.
type Validator struct {
	// MaxLength is the maximum locator length in bytes.
	MaxLength int
	// Schemes restricts accepted URI schemes. Empty means any locator
	// is accepted, including ones without a scheme.
	Schemes []string
}

// NewValidator returns a validator accepting any scheme.
func NewValidator() Validator {
	return Validator{MaxLength: DefaultMaxLength}
}

// Validate returns ErrInvalidMetadata if the locator cannot be used.
func (v Validator) Validate(locator string) error {
	if strings.TrimSpace(locator) == "" {
		return errors.Wrap(errors.ErrInvalidMetadata, "empty locator")
	}
	if v.MaxLength > 0 && len(locator) > v.MaxLength {
		return errors.Wrapf(errors.ErrInvalidMetadata, "locator longer than %d", v.MaxLength)
	}
	if !utf8.ValidString(locator) {
		return errors.Wrap(errors.ErrInvalidMetadata, "not utf8")
	}
	for _, r := range locator {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return errors.Wrapf(errors.ErrInvalidMetadata, "forbidden character %q", r)
		}
	}
	if len(v.Schemes) == 0 {
		return nil
	}

	scheme := Scheme(locator)
	if scheme == "" {
		return errors.Wrap(errors.ErrInvalidMetadata, "missing scheme")
	}
	for _, s := range v.Schemes {
		if strings.EqualFold(s, scheme) {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidMetadata, "scheme %q not allowed", scheme)
}

// Scheme returns the scheme of a locator in URI form, for example "ipfs"
// for "ipfs://bafy...". Empty string is returned when there is none.
func Scheme(locator string) string {
	i := strings.Index(locator, "://")
	if i <= 0 {
		return ""
	}
	scheme := locator[:i]
	for j, r := range scheme {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return ""
		}
	}
	return strings.ToLower(scheme)
}
