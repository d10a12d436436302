// Package memory contains an in-memory notifier for tests and dry runs.
package memory

import (
	"context"
	"sync"
)

// Notifier records sent messages for inspection.
type Notifier struct {
	mu       sync.RWMutex
	messages []string
	failWith error
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// FailWith makes every subsequent Send return err.
func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failWith = err
}

// Send records the message, or fails if FailWith was set.
func (n *Notifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.messages = append(n.messages, text)
	return nil
}

// Messages returns a copy of the recorded sends.
func (n *Notifier) Messages() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
