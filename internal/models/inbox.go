package models

import (
	"time"
)

// Inbox represents a managed email address belonging to one organization.
// The address is globally unique and immutable after creation. Deleting
// an inbox cascades to its messages.
type Inbox struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	DomainID       *uint     `gorm:"index" json:"domain_id,omitempty"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Domain       *Domain      `gorm:"foreignKey:DomainID" json:"-"`
	Messages     []Message    `gorm:"foreignKey:InboxID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Inbox
func (Inbox) TableName() string {
	return "inboxes"
}
