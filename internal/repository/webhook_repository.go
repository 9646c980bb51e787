package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// WebhookRepository defines the interface for webhook registration access
type WebhookRepository interface {
	Create(ctx context.Context, webhook *models.Webhook) error
	GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Webhook, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]models.Webhook, error)
	ListByOrganizationAndEvent(ctx context.Context, orgID uint, event models.WebhookEvent) ([]models.Webhook, error)
	Delete(ctx context.Context, orgID, id uint) error
}

// webhookRepository implements WebhookRepository using GORM
type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new WebhookRepository instance
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

// Create creates a new webhook registration
func (r *webhookRepository) Create(ctx context.Context, webhook *models.Webhook) error {
	result := r.db.WithContext(ctx).Create(webhook)
	if result.Error != nil {
		return fmt.Errorf("failed to create webhook: %w", result.Error)
	}
	return nil
}

// GetByOrganizationAndID retrieves a webhook scoped to an organization
func (r *webhookRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Webhook, error) {
	var webhook models.Webhook
	result := r.db.WithContext(ctx).Where("organization_id = ? AND id = ?", orgID, id).First(&webhook)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get webhook: %w", result.Error)
	}
	return &webhook, nil
}

// ListByOrganization retrieves all webhooks for an organization
func (r *webhookRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at DESC").Find(&webhooks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", result.Error)
	}
	return webhooks, nil
}

// ListByOrganizationAndEvent retrieves the organization's webhooks
// subscribed to the given event. The subscription list is serialized
// JSON, so the event filter is applied in memory after the tenant scan.
func (r *webhookRepository) ListByOrganizationAndEvent(ctx context.Context, orgID uint, event models.WebhookEvent) ([]models.Webhook, error) {
	webhooks, err := r.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	subscribed := make([]models.Webhook, 0, len(webhooks))
	for _, w := range webhooks {
		if w.SubscribesTo(event) {
			subscribed = append(subscribed, w)
		}
	}
	return subscribed, nil
}

// Delete deletes a webhook scoped to an organization
func (r *webhookRepository) Delete(ctx context.Context, orgID, id uint) error {
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Delete(&models.Webhook{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete webhook: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
