package service

import (
	"context"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fircode/shelter/internal/queue"
)

// EventPublisher delivers domain events to whoever listens.  Failures are
// reported but never undo the change that produced the event.
type EventPublisher interface {
	PublishFeedRequestDecided(ctx context.Context, ev queue.FeedRequestDecidedEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishFeedRequestDecided(context.Context, queue.FeedRequestDecidedEvent) error {
	return nil
}

// AMQPPublisher publishes signed events to RabbitMQ.  Each publish dials
// its own connection; decisions are rare enough for that to be fine.
type AMQPPublisher struct {
	URL    string
	Secret []byte
}

// PublishFeedRequestDecided sends ev to the durable feed_request.decided
// queue as a persistent message.
func (p *AMQPPublisher) PublishFeedRequestDecided(ctx context.Context, ev queue.FeedRequestDecidedEvent) error {
	body, err := queue.Sign(p.Secret, ev)
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}

	conn, err := dialContext(ctx, p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.FeedRequestQueue, // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/jwt",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         []byte(body),
	}
	if err := ch.PublishWithContext(ctx, "", queue.FeedRequestQueue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// dialTimeout bounds connect and handshake when ctx has no deadline.
const dialTimeout = 30 * time.Second

// dialContext is amqp.Dial with the TCP connect and the AMQP handshake
// bounded by ctx, so an unreachable broker cannot stall the caller.
func dialContext(ctx context.Context, url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			deadline, ok := ctx.Deadline()
			if !ok {
				deadline = time.Now().Add(dialTimeout)
			}
			// cleared by the client once the connection is open
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}
