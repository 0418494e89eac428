package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/model"
)

// MailSink receives mails taken off the queue.
type MailSink interface {
	Append(ctx context.Context, m model.Mail) error
}

// StartMailConsumer connects to RabbitMQ, declares queueName (durable) and
// moves every message into sink.  It reconnects with backoff until ctx is
// cancelled, then returns ctx.Err().  Messages that cannot be decoded or
// stored are rejected without requeue so a bad payload cannot spin the loop.
func StartMailConsumer(ctx context.Context, url, queueName string, sink MailSink) error {
	logger := logutil.GetOrDefault(ctx).With().Str("component", "mail-consumer").Str("queue", queueName).Logger()

	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect
		logger.Info().Msg("connected")

		err = consumeLoop(ctx, conn, queueName, sink)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, sink MailSink) error {
	logger := logutil.GetOrDefault(ctx)

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
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
			if err := HandleMessage(ctx, d.Body, sink); err != nil {
				logger.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one queued mail and stores it.
func HandleMessage(ctx context.Context, body []byte, sink MailSink) error {
	var ev MailRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.To == "" {
		return errors.New("mail without recipient")
	}
	if err := sink.Append(ctx, ev.Mail()); err != nil {
		return fmt.Errorf("store mail: %w", err)
	}
	return nil
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
