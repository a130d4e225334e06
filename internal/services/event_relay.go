package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/volcanocoin/backend/internal/models"
)

const (
	// TransferChannel is the Redis pub/sub channel front ends subscribe
	// to for balance refresh and spent/received alerts.
	TransferChannel = "token_transfers"
	// TransferQueue keeps a durable copy of every event for replay.
	TransferQueue = "token_transfer_queue"
)

// EventRelay republishes the ledger's Transfer events to Redis:
// pub/sub for live subscribers plus an RPush queue for consumers that
// poll. Delivery is fire-and-forget; a Redis outage is logged and the
// ledger never notices.
type EventRelay struct {
	redis *redis.Client
}

func NewEventRelay(rdb *redis.Client) *EventRelay {
	return &EventRelay{redis: rdb}
}

// Run consumes events until the channel closes or ctx is cancelled.
// Intended to be started once per subscription, on its own goroutine.
func (r *EventRelay) Run(ctx context.Context, events <-chan models.TransferEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Relay(ctx, ev)
		}
	}
}

// Relay publishes a single event. Nil-safe when Redis is absent.
func (r *EventRelay) Relay(ctx context.Context, ev models.TransferEvent) {
	if r == nil || r.redis == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[RELAY] Failed to marshal transfer event: %v", err)
		return
	}

	if err := r.redis.Publish(ctx, TransferChannel, data).Err(); err != nil {
		log.Printf("[RELAY] Failed to publish transfer event: %v", err)
	}

	if err := r.redis.RPush(ctx, TransferQueue, data).Err(); err != nil {
		log.Printf("[RELAY] Failed to queue transfer event: %v", err)
	}
}
