package history

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes change signals over redis pub/sub so that every API
// instance holding a session for the user reloads its snapshot.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

func NewRedisNotifier(client *redis.Client, appID string) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: appID}
}

func (n *RedisNotifier) channel(userID string) string {
	return fmt.Sprintf("%s:history:%s", n.prefix, userID)
}

func (n *RedisNotifier) Publish(ctx context.Context, userID string) error {
	return n.client.Publish(ctx, n.channel(userID), "changed").Err()
}

func (n *RedisNotifier) Listen(ctx context.Context, userID string) (<-chan struct{}, error) {
	pubsub := n.client.Subscribe(ctx, n.channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe history channel: %w", err)
	}
	out := make(chan struct{}, 1)
	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

var _ Notifier = (*RedisNotifier)(nil)
