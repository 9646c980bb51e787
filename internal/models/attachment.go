package models

import (
	"time"
)

// Attachment holds inline attachment content and metadata for one
// message. Content lives in the row itself; there is no external blob
// reference.
type Attachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MessageID   uint      `gorm:"not null;index" json:"message_id"`
	Filename    string    `gorm:"not null;size:255" json:"filename"`
	ContentType string    `gorm:"size:255" json:"content_type"`
	Size        int64     `json:"size"`
	Content     []byte    `json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}
