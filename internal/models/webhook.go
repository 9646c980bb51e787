package models

import (
	"time"
)

// WebhookEvent names one domain event a webhook can subscribe to.
type WebhookEvent string

// The closed event vocabulary.
const (
	EventInboxCreated      WebhookEvent = "inbox.created"
	EventInboxDeleted      WebhookEvent = "inbox.deleted"
	EventMessageSent       WebhookEvent = "message.sent"
	EventMessageReceived   WebhookEvent = "message.received"
	EventMessageDelivered  WebhookEvent = "message.delivered"
	EventMessageBounced    WebhookEvent = "message.bounced"
	EventMessageComplained WebhookEvent = "message.complained"
	EventMessageRejected   WebhookEvent = "message.rejected"
)

// WebhookEvents lists every event name in the vocabulary.
var WebhookEvents = []WebhookEvent{
	EventInboxCreated,
	EventInboxDeleted,
	EventMessageSent,
	EventMessageReceived,
	EventMessageDelivered,
	EventMessageBounced,
	EventMessageComplained,
	EventMessageRejected,
}

// IsValid reports whether the event name is part of the vocabulary.
func (e WebhookEvent) IsValid() bool {
	for _, known := range WebhookEvents {
		if e == known {
			return true
		}
	}
	return false
}

// Webhook is an organization-registered HTTP endpoint subscribed to a
// set of events. Secret, when set, is used to HMAC-sign delivery
// payloads.
type Webhook struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	Name           string         `gorm:"size:255" json:"name"`
	URL            string         `gorm:"not null;size:2048" json:"url"`
	Events         []WebhookEvent `gorm:"serializer:json" json:"events"`
	Secret         string         `gorm:"size:255" json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Webhook
func (Webhook) TableName() string {
	return "webhooks"
}

// SubscribesTo reports whether the webhook is subscribed to the event.
func (w *Webhook) SubscribesTo(event WebhookEvent) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
