package memory

import (
	"context"
	"sync"
)

// Notifier records every published task id in order.
type Notifier struct {
	mu       sync.Mutex
	messages []string
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Publish(ctx context.Context, taskID string) error {
	n.mu.Lock()
	n.messages = append(n.messages, taskID)
	n.mu.Unlock()
	return nil
}

func (n *Notifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
