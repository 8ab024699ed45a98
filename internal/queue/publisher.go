package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ReservationQueue is the durable queue every reservation event goes to.
const ReservationQueue = "reservation.events"

// dialTimeout bounds connecting on the booking path; after a failed dial
// the publisher stays quiet for redialAfter.
const (
	dialTimeout = 2 * time.Second
	redialAfter = 10 * time.Second
)

var errBrokerDown = errors.New("rabbitmq: broker unavailable")

// Publisher sends reservation events to RabbitMQ.  The connection and
// channel are opened on first use and reopened after a failure.
type Publisher struct {
	url    string
	logger *log.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time // no dial attempts before this after a failed dial
}

// NewPublisher returns a Publisher for the broker at url.  No connection
// is made until the first Publish.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New("rabbitmq")
	}
	return &Publisher{url: url, logger: logger}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		MessageId:    ev.ReservationID + ":" + ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ReservationQueue, false, false, pub); err != nil {
		p.logger.Warnf("rabbitmq: publish failed: %v", err)
		p.reset()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close releases the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

// channel returns an open channel, dialling when needed.  Callers hold mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.retryAt) {
		return nil, errBrokerDown
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		p.retryAt = time.Now().Add(redialAfter)
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := declareQueue(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// declareQueue makes sure the durable queue exists.  It is idempotent.
func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}
