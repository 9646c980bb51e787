package models

import (
	"encoding/json"
	"time"
)

// PayloadKind tags the variant stored in a webhook attempt's payload.
type PayloadKind string

const (
	PayloadKindMessage PayloadKind = "message"
	PayloadKindInbox   PayloadKind = "inbox"
	PayloadKindTest    PayloadKind = "test"
)

// TaggedPayload is the stored form of a webhook payload: a kind tag
// plus the entity JSON. The wire envelope carries Data directly; the
// audit record keeps the tag so the variant survives serialization.
type TaggedPayload struct {
	Kind PayloadKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// WebhookAttempt is an immutable audit record of one delivery try of
// one event to one webhook. One row per webhook per event; there are
// no retries, so there is never more than one row per trigger.
type WebhookAttempt struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrganizationID uint          `gorm:"not null;index" json:"organization_id"`
	WebhookID      uint          `gorm:"not null;index" json:"webhook_id"`
	InboxID        *uint         `json:"inbox_id,omitempty"`
	MessageID      *uint         `json:"message_id,omitempty"`
	Event          WebhookEvent  `gorm:"not null;size:64" json:"event"`
	Timestamp      time.Time     `gorm:"not null" json:"timestamp"`
	Payload        TaggedPayload `gorm:"serializer:json" json:"payload"`
	Status         int           `gorm:"not null" json:"status"`
	Error          string        `json:"error,omitempty"`
	Response       string        `json:"response,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Webhook      Webhook      `gorm:"foreignKey:WebhookID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for WebhookAttempt
func (WebhookAttempt) TableName() string {
	return "webhook_attempts"
}
