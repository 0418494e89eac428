// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/storefront/internal/model"

// MailRequestedEvent is published whenever the shop wants a mail sent.  The
// consumer stores it in the outbox; a relay picks it up from there.
type MailRequestedEvent struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"` // epoch ms
}

func NewMailRequestedEvent(m model.Mail) MailRequestedEvent {
	return MailRequestedEvent{ID: m.ID, From: m.From, To: m.To, Subject: m.Subject, Body: m.Body, CreatedAt: m.CreatedAt}
}

// Mail converts the event back into the outbox record.
func (e MailRequestedEvent) Mail() model.Mail {
	return model.Mail{ID: e.ID, From: e.From, To: e.To, Subject: e.Subject, Body: e.Body, CreatedAt: e.CreatedAt}
}
