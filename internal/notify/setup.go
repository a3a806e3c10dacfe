package notify

import (
	"context"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"
)

// Setup builds the process relay: a bus with its listener and, when rdb is
// set, the Redis fan-out in both directions. Forwarding stops with ctx.
func Setup(ctx context.Context, rdb *redis.Client, origin string) (Relay, *Listener) {
	bus := NewBus()
	l := Listen(bus)
	if rdb == nil {
		return bus, l
	}
	go func() {
		if err := Forward(ctx, rdb, bus, origin); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[relay] forward stopped: %v", err)
		}
	}()
	return NewRedisRelay(bus, rdb, origin), l
}
