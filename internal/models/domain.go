package models

import (
	"time"
)

// DomainRecordStatus is the verification state of a single DNS record.
type DomainRecordStatus string

const (
	RecordPending  DomainRecordStatus = "pending"
	RecordVerified DomainRecordStatus = "verified"
)

// DomainRecord is one DNS record a customer must publish before the
// domain can send or receive mail. Each record verifies independently.
type DomainRecord struct {
	Type     string             `json:"type"`
	Name     string             `json:"name"`
	Value    string             `json:"value"`
	Priority int                `json:"priority,omitempty"`
	Status   DomainRecordStatus `json:"status"`
}

// Domain represents a customer-owned sending/receiving identity.
// Unique per (organization, name). Inboxes may only be created against
// a domain whose aggregate Verified flag is true.
type Domain struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	OrganizationID uint           `gorm:"not null;index:idx_domains_org_name,unique" json:"organization_id"`
	Name           string         `gorm:"not null;size:255;index:idx_domains_org_name,unique" json:"name"`
	Verified       bool           `gorm:"default:false" json:"verified"`
	Records        []DomainRecord `gorm:"serializer:json" json:"records"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Domain
func (Domain) TableName() string {
	return "domains"
}
