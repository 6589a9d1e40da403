package market

import (
	"github.com/asaskevich/EventBus"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/x/feepolicy"
	"github.com/iov-one/bazaar/x/metadata"
	"github.com/tendermint/tendermint/libs/log"
)

// DefaultMaxRetries is the number of times an operation is executed again
// after its commit conflicted with another one.
const DefaultMaxRetries = 16

// Config is everything an Engine needs besides its store.
type Config struct {
	// Policy declares fees. It is copied at construction.
	Policy feepolicy.Policy
	// MaxRetries bounds re-execution of conflicting operations. Zero means
	// DefaultMaxRetries.
	MaxRetries int
	// Metadata validates locators of minted assets. Zero value accepts
	// any locator up to metadata.DefaultMaxLength bytes.
	Metadata metadata.Validator
	// Logger defaults to a no-op logger.
	Logger log.Logger
	// Bus receives market events. A private bus is created if nil.
	Bus EventBus.Bus
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	var errs error
	if err := c.Policy.Validate(); err != nil {
		errs = errors.Append(errs, errors.Field("Policy", err, "invalid fee policy"))
	}
	if c.MaxRetries < 0 {
		errs = errors.Append(errs, errors.Field("MaxRetries", errors.ErrInput, "must not be negative"))
	}
	if c.Metadata.MaxLength < 0 {
		errs = errors.Append(errs, errors.Field("Metadata", errors.ErrInput, "negative max length"))
	}
	return errs
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Metadata.MaxLength == 0 {
		c.Metadata.MaxLength = metadata.DefaultMaxLength
	}
	if c.Logger == nil {
		c.Logger = log.NewNopLogger()
	}
	if c.Bus == nil {
		c.Bus = EventBus.New()
	}
	return c
}
