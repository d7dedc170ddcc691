package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
)

// Broker owns a RabbitMQ connection and a channel on a durable topic exchange.
// It re-dials lazily when the connection has dropped.
type Broker struct {
	url      string
	exchange string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

var _ Publisher = (*Broker)(nil)

// Dial connects to url and declares exchange.
func Dial(url, exchange string) (*Broker, error) {
	b := &Broker{url: url, exchange: exchange}
	if err := b.ensureConnection(); err != nil {
		return nil, err
	}
	return b, nil
}

// ensureConnection must be called with mu held, or before b is shared.
func (b *Broker) ensureConnection() error {
	if b.conn != nil && !b.conn.IsClosed() && b.channel != nil && !b.channel.IsClosed() {
		return nil
	}
	b.closeLocked()

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return errors.Wrapf(err, "declare exchange %q", b.exchange)
	}
	b.conn, b.channel = conn, ch
	return nil
}

// Publish sends msg to the exchange, routed by its kind.
func (b *Broker) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureConnection(); err != nil {
		return err
	}
	err = b.channel.PublishWithContext(ctx, b.exchange, string(msg.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	return errors.Wrapf(err, "publish %s", msg.Kind)
}

// Handler processes one decoded notification.
type Handler func(ctx context.Context, msg Message) error

// Consume binds queue to every notification kind and feeds deliveries to
// handle until ctx is cancelled. Messages that fail to decode are dropped;
// messages whose handler fails are requeued once.
func (b *Broker) Consume(ctx context.Context, queue string, log logger.Logger, handle Handler) error {
	b.mu.Lock()
	if err := b.ensureConnection(); err != nil {
		b.mu.Unlock()
		return err
	}
	ch := b.channel
	b.mu.Unlock()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "declare queue %q", queue)
	}
	if err := ch.QueueBind(queue, "#", b.exchange, false, nil); err != nil {
		return errors.Wrapf(err, "bind queue %q", queue)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return errors.Wrap(err, "set prefetch")
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "start consuming")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			var msg Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Error("drop malformed notification", err, logger.Fields{"routing_key": d.RoutingKey})
				_ = d.Reject(false)
				continue
			}
			if err := handle(ctx, msg); err != nil {
				log.Error("handle notification", err, logger.Fields{"kind": msg.Kind, "redelivered": d.Redelivered})
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Close shuts the channel and connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *Broker) closeLocked() error {
	var firstErr error
	if b.channel != nil && !b.channel.IsClosed() {
		firstErr = b.channel.Close()
	}
	if b.conn != nil && !b.conn.IsClosed() {
		if err := b.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.channel, b.conn = nil, nil
	return firstErr
}
