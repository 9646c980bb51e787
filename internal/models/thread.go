package models

import (
	"time"
)

// Thread is an ordered conversation grouping of messages within one
// inbox. The message sequence is append-only; insertion order is
// chronological order.
type Thread struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	InboxID        uint      `gorm:"not null;index" json:"inbox_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Organization Organization    `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Inbox        Inbox           `gorm:"foreignKey:InboxID;constraint:OnDelete:CASCADE" json:"-"`
	Entries      []ThreadMessage `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Thread
func (Thread) TableName() string {
	return "threads"
}

// ThreadMessage is one position in a thread's message sequence. Rows
// are only ever inserted through ThreadRepository.AppendMessage, which
// keeps Position contiguous and the sequence append-only.
type ThreadMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index:idx_thread_position,unique" json:"thread_id"`
	Position  int       `gorm:"not null;index:idx_thread_position,unique" json:"position"`
	MessageID uint      `gorm:"not null;uniqueIndex" json:"message_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for ThreadMessage
func (ThreadMessage) TableName() string {
	return "thread_messages"
}

// ThreadWithMessages is used for API responses that include the ordered
// message list.
type ThreadWithMessages struct {
	Thread
	Messages []Message `json:"messages"`
}
