package market

import "github.com/asaskevich/EventBus"

// Topics published after an operation committed. Handlers receive a
// single argument of the type noted next to the topic.
const (
	// TopicMinted carries *registry.Asset.
	TopicMinted = "market:minted"
	// TopicListed carries *listing.Listing.
	TopicListed = "market:listed"
	// TopicSold carries *Settlement.
	TopicSold = "market:sold"
)

// Events returns the bus market events are published on.
func (e *Engine) Events() EventBus.BusSubscriber {
	return e.bus
}

// WaitEvents blocks until all asynchronous handlers are done.
func (e *Engine) WaitEvents() {
	e.bus.WaitAsync()
}
