package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/activity"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "collabhub:activity"

// Options configures the publisher connection.
type Options struct {
	Addr    string
	DB      int
	Channel string
}

// Publisher mirrors activity events onto a Redis pub/sub channel as JSON so
// out-of-process dashboards can follow room presence.
type Publisher struct {
	rdb     *goredis.Client
	channel string
	log     *zerolog.Logger
}

// New connects to redis and verifies connectivity.
func New(ctx context.Context, opts Options, logger *zerolog.Logger) (*Publisher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(rdb, opts.Channel, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *goredis.Client, channel string, logger *zerolog.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Publisher{rdb: rdb, channel: channel, log: logger}
}

// Channel returns the channel events are published to.
func (p *Publisher) Channel() string {
	return p.channel
}

// Record implements activity.Sink.
func (p *Publisher) Record(ctx context.Context, ev activity.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// Close shuts down the redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

var _ activity.Sink = (*Publisher)(nil)
