package models

import (
	"time"
)

// MessageStatus is the delivery state of a message. Outbound messages
// start with no status and latch onto exactly one terminal value from
// the provider's first callback. Inbound messages are "received" from
// the moment they are persisted.
type MessageStatus string

const (
	StatusSent       MessageStatus = "sent"
	StatusReceived   MessageStatus = "received"
	StatusDelivered  MessageStatus = "delivered"
	StatusBounced    MessageStatus = "bounced"
	StatusComplained MessageStatus = "complained"
	StatusRejected   MessageStatus = "rejected"
)

// IsTerminal reports whether the status is a final delivery outcome.
// Once a message reaches a terminal status it never transitions again.
func (s MessageStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusBounced, StatusComplained, StatusRejected:
		return true
	}
	return false
}

// Message is the central entity: one email, outbound or inbound,
// always linked to a thread. Identity fields (organization, inbox,
// thread, from) are immutable after creation; only Status and
// ExternalMessageID may be updated.
type Message struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrganizationID uint          `gorm:"not null;index" json:"organization_id"`
	InboxID        uint          `gorm:"not null;index" json:"inbox_id"`
	ThreadID       uint          `gorm:"not null;index" json:"thread_id"`
	FromInboxID    *uint         `json:"from_inbox_id,omitempty"`
	ToInboxID      *uint         `json:"to_inbox_id,omitempty"`
	From           string        `gorm:"not null;size:255" json:"from"`
	To             []string      `gorm:"serializer:json" json:"to"`
	Cc             []string      `gorm:"serializer:json" json:"cc"`
	Bcc            []string      `gorm:"serializer:json" json:"bcc"`
	Subject        string        `json:"subject"`
	Text           string        `json:"text"`
	HTML           string        `json:"html"`
	Labels         []string      `gorm:"serializer:json" json:"labels"`
	Status         MessageStatus `gorm:"size:32;index" json:"status,omitempty"`
	// ExternalMessageID is the transmission provider's identifier,
	// assigned after dispatch. It is the correlation key for replies
	// and delivery callbacks, so it needs a point-lookup index.
	ExternalMessageID *string   `gorm:"index;size:255" json:"external_message_id,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Inbox        Inbox        `gorm:"foreignKey:InboxID;constraint:OnDelete:CASCADE" json:"-"`
	Thread       Thread       `gorm:"foreignKey:ThreadID" json:"-"`
	Attachments  []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}
