// Package progress decouples running modules from presentation via a
// findings event stream. One channel lives for the console session; modules
// publish interim findings and the single active subscriber renders them.
package progress

import (
	"sync"

	sdk "github.com/talon-framework/talon/pkg/sdk/v1"
)

// Channel is a session-scoped findings stream. It implements sdk.Progress
// so it can be handed directly to modules.
type Channel struct {
	mu         sync.Mutex
	subscriber func(sdk.Finding)
}

// NewChannel creates a channel with no subscriber. Findings published
// before Subscribe are discarded.
func NewChannel() *Channel {
	return &Channel{}
}

// Subscribe installs the handler invoked for every published finding.
// Only one subscriber is active at a time; a later call replaces the earlier.
func (c *Channel) Subscribe(fn func(sdk.Finding)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriber = fn
}

// Finding publishes one finding to the active subscriber.
func (c *Channel) Finding(f sdk.Finding) {
	c.mu.Lock()
	fn := c.subscriber
	c.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}
