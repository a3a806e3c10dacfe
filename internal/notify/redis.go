package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis channel relayed errors are fanned out on.
const Channel = "konki:permission-error"

type wireEvent struct {
	Operation   Operation `json:"operation"`
	Path        string    `json:"path"`
	RequestData any       `json:"requestData,omitempty"`
	Error       string    `json:"error,omitempty"`
	Origin      string    `json:"origin"`
	At          time.Time `json:"at"`
}

// RedisRelay delivers to a local Relay and also publishes the event on Redis.
// Origin names the publishing process so Forward can skip its own events.
type RedisRelay struct {
	local  Relay
	rdb    *redis.Client
	origin string
}

func NewRedisRelay(local Relay, rdb *redis.Client, origin string) *RedisRelay {
	return &RedisRelay{local: local, rdb: rdb, origin: origin}
}

func (r *RedisRelay) Publish(ctx context.Context, e *PermissionError) {
	if e == nil {
		return
	}
	r.local.Publish(ctx, e)

	ev := wireEvent{Operation: e.Operation, Path: e.Path, RequestData: e.RequestData, Origin: r.origin, At: time.Now().UTC()}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[relay] failed to marshal event: %v", err)
		return
	}

	// The caller's context may already be done when a background write fails.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.rdb.Publish(pubCtx, Channel, payload).Err(); err != nil {
		log.Printf("[relay] redis publish failed: %v", err)
	}
}

// Forward subscribes to the Redis channel and republishes events published by
// other origins on the bus. It blocks until ctx is done.
func Forward(ctx context.Context, rdb *redis.Client, b *Bus, origin string) error {
	sub := rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[relay] bad event on %s: %v", Channel, err)
				continue
			}
			if ev.Origin == origin {
				continue
			}
			pe := &PermissionError{Operation: ev.Operation, Path: ev.Path, RequestData: ev.RequestData}
			if ev.Error != "" {
				pe.Err = remoteError(ev.Error)
			}
			b.Publish(ctx, pe)
		}
	}
}

type remoteError string

func (e remoteError) Error() string { return string(e) }
