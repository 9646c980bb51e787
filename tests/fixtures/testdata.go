// Package fixtures provides seed data builders shared by the
// integration and end-to-end suites.
package fixtures

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/inboxkit/inboxkit/internal/models"
)

// TestAPIKey is the key the seeded organization authenticates with.
const TestAPIKey = "ik_test_0000000000000000000000000000"

// Organization returns an unsaved tenant.
func Organization(name string) *models.Organization {
	return &models.Organization{Name: name}
}

// APIKey returns an unsaved key bound to orgID.
func APIKey(orgID uint, key string) *models.ApiKey {
	return &models.ApiKey{
		OrganizationID: orgID,
		Key:            key,
		Name:           "test key",
	}
}

// Inbox returns an unsaved inbox with a deterministic address.
func Inbox(orgID uint, name, email string) *models.Inbox {
	return &models.Inbox{
		OrganizationID: orgID,
		Name:           name,
		Email:          email,
	}
}

// VerifiedDomain returns an unsaved domain that already passed DNS
// verification.
func VerifiedDomain(orgID uint, name string) *models.Domain {
	return &models.Domain{
		OrganizationID: orgID,
		Name:           name,
		Verified:       true,
		Records: []models.DomainRecord{
			{Type: "MX", Name: "@", Value: "inbound.example.dev", Priority: 10, Status: models.RecordVerified},
			{Type: "TXT", Name: "_dmarc", Value: "v=DMARC1; p=none;", Status: models.RecordVerified},
		},
	}
}

// Webhook returns an unsaved webhook subscribed to events.
func Webhook(orgID uint, url, secret string, events ...models.WebhookEvent) *models.Webhook {
	return &models.Webhook{
		OrganizationID: orgID,
		Name:           "test hook",
		URL:            url,
		Secret:         secret,
		Events:         events,
	}
}

// InboundMIME builds a minimal plain-text message for the ingest path.
func InboundMIME(from, to, subject, body string) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMessage-ID: <%s-msg@mail.example.com>\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, to, subject, subject, body,
	)
}

// Tenant is one fully seeded organization with its API key.
type Tenant struct {
	Org *models.Organization
	Key *models.ApiKey
}

// SeedTenant persists an organization and an API key for it.
func SeedTenant(db *gorm.DB, name, key string) (*Tenant, error) {
	org := Organization(name)
	if err := db.Create(org).Error; err != nil {
		return nil, err
	}
	apiKey := APIKey(org.ID, key)
	if err := db.Create(apiKey).Error; err != nil {
		return nil, err
	}
	return &Tenant{Org: org, Key: apiKey}, nil
}
