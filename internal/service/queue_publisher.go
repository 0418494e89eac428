package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/storefront/internal/logutil"
	q "github.com/iliyamo/storefront/internal/queue"
)

// PublishMailRequested publishes ev to queueName on the broker at url.  Any
// error is logged and returned so the caller can fall back.  Messages are
// marked as persistent.
func PublishMailRequested(ctx context.Context, url, queueName string, ev q.MailRequestedEvent) error {
	logger := logutil.GetOrDefault(ctx)

	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
