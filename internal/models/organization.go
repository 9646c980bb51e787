package models

import (
	"time"
)

// Organization is the tenant root. Every other entity carries an
// OrganizationID and all queries are scoped by it.
type Organization struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"not null;size:255" json:"name"`
	DailyMessageLimit int       `gorm:"default:0" json:"daily_message_limit"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Inboxes []Inbox  `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Domains []Domain `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}
