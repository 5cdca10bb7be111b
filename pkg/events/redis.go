package events

import (
	"context"
	"fmt"
)

// ChannelPublisher is satisfied by cache.RedisCache.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type RedisPublisher struct {
	client  ChannelPublisher
	channel string
}

func NewRedisPublisher(client ChannelPublisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if err := p.client.Publish(ctx, p.channel, event); err != nil {
		return fmt.Errorf("failed to publish %s to redis: %w", event.Type, err)
	}
	return nil
}
