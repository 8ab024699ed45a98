// Package realtime fans reservation changes out to open seat pickers over
// Redis pub/sub, one channel per vehicle and service date.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
)

// Hub publishes and subscribes to seat-change channels.
type Hub struct {
	rdb    redis.UniversalClient
	prefix string
	logger *log.Logger
}

// NewHub returns a Hub on rdb.
func NewHub(rdb redis.UniversalClient, prefix string, logger *log.Logger) *Hub {
	if prefix == "" {
		prefix = "seats"
	}
	if logger == nil {
		logger = log.New("realtime")
	}
	return &Hub{rdb: rdb, prefix: prefix, logger: logger}
}

// Channel returns the pub/sub channel of a vehicle and date.
func (h *Hub) Channel(vehicleID string, date model.ServiceDate) string {
	return fmt.Sprintf("%s:%s:%s", h.prefix, vehicleID, date)
}

// Publish announces ev on its vehicle/date channel.
func (h *Hub) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	date, err := model.ParseServiceDate(ev.ServiceDate)
	if err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal seat change: %w", err)
	}
	if err := h.rdb.Publish(ctx, h.Channel(ev.VehicleID, date), body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscription delivers events for one vehicle and date until closed.
type Subscription struct {
	ps     *redis.PubSub
	events chan queue.ReservationEvent
}

// Events returns the delivery channel.  It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan queue.ReservationEvent { return s.events }

// Close ends the subscription.
func (s *Subscription) Close() error { return s.ps.Close() }

// Subscribe listens on the channel of a vehicle and date.  Malformed
// messages are logged and dropped.
func (h *Hub) Subscribe(ctx context.Context, vehicleID string, date model.ServiceDate) (*Subscription, error) {
	ps := h.rdb.Subscribe(ctx, h.Channel(vehicleID, date))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}
	sub := &Subscription{ps: ps, events: make(chan queue.ReservationEvent, 16)}
	go func() {
		defer close(sub.events)
		for msg := range ps.Channel() {
			var ev queue.ReservationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warnf("realtime: drop malformed message on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}
