package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads reservation events and appends one audit line per event
// to a log file.
type Consumer struct {
	url     string
	logPath string
	logger  *log.Logger

	mu sync.Mutex // serialises writes to logPath
}

// NewConsumer returns a Consumer that writes to logPath (typically
// logs/booking.log).
func NewConsumer(url, logPath string, logger *log.Logger) *Consumer {
	if logger == nil {
		logger = log.New("booking-consumer")
	}
	return &Consumer{url: url, logPath: logPath, logger: logger}
}

// Run consumes until ctx is done, reconnecting with exponential backoff
// when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warnf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warnf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warnf("booking-consumer: set QoS failed: %v", err)
	}
	if _, err := declareQueue(ch); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, ReservationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.logger.Errorf("booking-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // do not requeue poison messages
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends its audit line.
func (c *Consumer) Handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == "" {
		return errors.New("event missing type or reservation id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteAuditLine(f, ev)
}

// WriteAuditLine writes the single-line, human readable form of ev.
func WriteAuditLine(w io.Writer, ev ReservationEvent) error {
	party := ev.PartyID
	if party == "" {
		party = "guest"
	}
	_, err := fmt.Fprintf(w, "[%s] %s | reservation_id=%s | vehicle_id=%s | vehicle=%q | date=%s | seat=%s | status=%s | party=%s | operator=%s | amount=%d cents\n",
		ev.OccurredAt, describe(ev.Type), ev.ReservationID, ev.VehicleID, ev.VehicleName, ev.ServiceDate, ev.SeatID, ev.Status, party, ev.OperatorID, ev.AmountCents)
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func describe(eventType string) string {
	switch eventType {
	case EventBooked:
		return "Reservation booked"
	case EventCancelled:
		return "Reservation cancelled"
	case EventCompleted:
		return "Reservation completed"
	case EventDeleted:
		return "Reservation deleted"
	}
	return "Reservation event " + eventType
}

// sleep waits for d or until ctx is done; it reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
