package history

import (
	"context"
	"sync"
)

// Notifier signals that a user's history changed.
type Notifier interface {
	Publish(ctx context.Context, userID string) error
	// Listen returns a channel that receives a value after each Publish for userID.
	// The channel is closed once ctx is done.
	Listen(ctx context.Context, userID string) (<-chan struct{}, error)
}

// LocalNotifier fans out notifications inside one process.
type LocalNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[chan struct{}]struct{})}
}

func (n *LocalNotifier) Publish(_ context.Context, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.listeners[userID] {
		// Pending signals coalesce; the listener reloads the whole snapshot anyway.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, userID string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	set, ok := n.listeners[userID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		n.listeners[userID] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.listeners[userID], ch)
		if len(n.listeners[userID]) == 0 {
			delete(n.listeners, userID)
		}
		close(ch)
		n.mu.Unlock()
	}()
	return ch, nil
}

var _ Notifier = (*LocalNotifier)(nil)
