package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Bus fans recorded events out to other processes.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type redisBus struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects to addr and publishes on channel ("answerset.events"
// when empty). The connection is checked before returning.
func NewRedisBus(ctx context.Context, addr, channel string) (Bus, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if channel = strings.TrimSpace(channel); channel == "" {
		channel = "answerset.events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisBus{rdb: rdb, channel: channel}, nil
}

func (b *redisBus) Publish(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) Close() error { return b.rdb.Close() }
