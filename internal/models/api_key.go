package models

import (
	"time"
)

// ApiKey authenticates API requests and resolves them to an organization.
type ApiKey struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Key            string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	Name           string    `gorm:"size:255" json:"name,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for ApiKey
func (ApiKey) TableName() string {
	return "api_keys"
}
