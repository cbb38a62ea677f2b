// Package events delivers committed loan events over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"

	"p2p-lending-backend/internal/domain/loan"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "loan-events"

var _ loan.Publisher = (*RedisPublisher)(nil)

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish sends every event as one JSON message, in order, in a single round trip.
func (p *RedisPublisher) Publish(ctx context.Context, events ...loan.Event) error {
	if len(events) == 0 {
		return nil
	}
	pipe := p.rdb.Pipeline()
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return errors.Wrapf(err, "encode event %s", e.EventID)
		}
		pipe.Publish(ctx, p.channel, b)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "publish loan events")
}

// Subscription is a confirmed subscription to the event channel.
type Subscription struct {
	ps *redis.PubSub
	ch <-chan *redis.Message
}

// Subscribe returns once redis has acknowledged the subscription, so no
// event published afterwards is missed.
func (p *RedisPublisher) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := p.rdb.Subscribe(ctx, p.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(err, "subscribe loan events")
	}
	return &Subscription{ps: ps, ch: ps.Channel()}, nil
}

// Next blocks for the next raw JSON event until ctx is done or the
// subscription is closed.
func (s *Subscription) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case m, ok := <-s.ch:
		if !ok {
			return nil, redis.ErrClosed
		}
		return []byte(m.Payload), nil
	}
}

func (s *Subscription) Close() error { return s.ps.Close() }
