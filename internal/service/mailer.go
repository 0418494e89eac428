package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/queue"
)

// Mailer sends one plain-text mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailStore is where mails end up when nothing relays them.
type MailStore interface {
	Append(ctx context.Context, m model.Mail) error
}

// OutboxMailer writes every mail to the local outbox.
type OutboxMailer struct {
	Outbox MailStore
	From   string
	now    func() time.Time
}

func NewOutboxMailer(outbox MailStore, from string) *OutboxMailer {
	return &OutboxMailer{Outbox: outbox, From: from, now: time.Now}
}

func (m *OutboxMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Outbox.Append(ctx, m.compose(to, subject, body))
}

func (m *OutboxMailer) compose(to, subject, body string) model.Mail {
	return model.Mail{
		ID:        uuid.NewString(),
		From:      m.From,
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: m.now().UnixMilli(),
	}
}

type publishFunc func(ctx context.Context, url, queueName string, ev queue.MailRequestedEvent) error

// QueueMailer hands mails to RabbitMQ and falls back to the outbox when the
// broker cannot take them.
type QueueMailer struct {
	URL      string
	Queue    string
	Fallback *OutboxMailer
	publish  publishFunc
}

func NewQueueMailer(url, queueName string, fallback *OutboxMailer) *QueueMailer {
	return &QueueMailer{URL: url, Queue: queueName, Fallback: fallback, publish: PublishMailRequested}
}

func (m *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	mail := m.Fallback.compose(to, subject, body)
	err := m.publish(ctx, m.URL, m.Queue, queue.NewMailRequestedEvent(mail))
	if err == nil {
		return nil
	}
	lg := logutil.GetOrDefault(ctx)
	lg.Warn().Err(err).Str("mail_id", mail.ID).Msg("mail queue unavailable; writing to outbox")
	return m.Fallback.Outbox.Append(ctx, mail)
}
