package repository

import (
	"context"

	"marketplace_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Channel names for the change feed. A rooms channel fires whenever any room
// of that user is created or updated; a messages channel fires on every
// message appended to that room. The payload carries no data: receivers
// re-query the store and get the full current result set.
const (
	roomsChannelPrefix    = "chat:rooms:"
	messagesChannelPrefix = "chat:messages:"
)

// RoomsChannel change-feed channel for one user's room list
func RoomsChannel(userID string) string {
	return roomsChannelPrefix + userID
}

// MessagesChannel change-feed channel for one room's messages
func MessagesChannel(roomID string) string {
	return messagesChannelPrefix + roomID
}

// ChangeNotifier is the push half of the realtime store: publish a change
// tick on a channel, subscribe to a stream of ticks. Cancel stops the stream
// and is safe to call more than once.
type ChangeNotifier interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (<-chan struct{}, func())
}

// RedisNotifier redis pub/sub backed ChangeNotifier
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier create RedisNotifier
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// Publish send a change tick on channel
func (r *RedisNotifier) Publish(ctx context.Context, channel string) error {
	return r.client.Publish(ctx, channel, "1").Err()
}

// Subscribe stream change ticks from channel until cancel is called or ctx ends
func (r *RedisNotifier) Subscribe(ctx context.Context, channel string) (<-chan struct{}, func()) {
	sub := r.client.Subscribe(ctx, channel)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				// coalesce: receivers re-query anyway, one pending tick is enough
				select {
				case out <- struct{}{}:
				default:
				}
			case <-ctx.Done():
				if err := sub.Close(); err != nil {
					logger.Log.Error("notifier sub close err", zap.String("channel", channel), zap.Error(err))
				}
				return
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil && err != redis.ErrClosed {
			logger.Log.Error("notifier sub close err", zap.String("channel", channel), zap.Error(err))
		}
	}
	return out, cancel
}
