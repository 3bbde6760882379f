// Package queue contains the background consumer that listens to the
// feed_request.decided queue and appends an audit line per decision to
// <logDir>/feed_requests.log.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogName is the file the consumer appends to inside its log dir.
const AuditLogName = "feed_requests.log"

// Consumer drains the decision queue into an append-only audit log.
type Consumer struct {
	URL    string
	Secret []byte
	LogDir string
	Log    *slog.Logger
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Broker failures trigger a reconnect with
// exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("feed-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("feed-consumer: consume loop ended; reconnecting", "err", err)
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
		c.Log.Warn("feed-consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(FeedRequestQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(FeedRequestQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Error("feed-consumer: handle message failed", "err", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle verifies one message body and appends it to the audit log.
func (c *Consumer) Handle(body []byte) error {
	ev, err := Verify(c.Secret, string(body))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, AuditLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as one human-friendly log line.
func FormatAuditLine(ev FeedRequestDecidedEvent) string {
	verdict := "declined"
	if ev.Approved {
		verdict = "approved"
	}
	return fmt.Sprintf("[%s] Feed request %s | request_id=%d | actor=%s | dog_id=%d | feed_amount=%d | award=%d | by=%s\n",
		ev.DecidedAt, verdict, ev.RequestID, ev.ActorEmail, ev.DogID, ev.FeedAmount, ev.Award, ev.DecidedBy)
}

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
