package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"agrirent/internal/metrics"
	"agrirent/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "rental:slot_updated"

type relayMessage struct {
	Origin   string `json:"origin"`
	District string `json:"district"`
	Event    Event  `json:"event"`
}

// Relay fans room events out to every instance sharing a Redis server. Each
// instance already notified its own rooms, so messages from itself are skipped.
type Relay struct {
	rdb    *redis.Client
	hub    *Hub
	origin string
}

func NewRelay(rdb *redis.Client, hub *Hub) *Relay {
	return &Relay{rdb: rdb, hub: hub, origin: uuid.NewString()}
}

func (r *Relay) Publish(ctx context.Context, district string, event Event) error {
	payload, err := json.Marshal(relayMessage{Origin: r.origin, District: district, Event: event})
	if err != nil {
		return fmt.Errorf("marshal relay message: %w", err)
	}
	if err := r.rdb.Publish(ctx, relayChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish relay message: %w", err)
	}
	metrics.RelayMessages.WithLabelValues("published").Inc()
	return nil
}

// Run delivers events published by other instances until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, relayChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", relayChannel, err)
	}
	logger.Info().Str("channel", relayChannel).Str("origin", r.origin).Msg("room relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.dispatch(msg.Payload)
		}
	}
}

func (r *Relay) dispatch(payload string) {
	var m relayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		logger.Warn().Err(err).Msg("malformed relay message")
		return
	}
	if m.Origin == r.origin {
		metrics.RelayMessages.WithLabelValues("skipped").Inc()
		return
	}
	metrics.RelayMessages.WithLabelValues("received").Inc()
	r.hub.NotifyRoom(m.District, m.Event, nil)
}
