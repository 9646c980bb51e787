package repository

import (
	"context"
	"fmt"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// WebhookAttemptRepository defines the interface for webhook delivery
// audit records. Attempts are append-only: there is no update or
// delete surface.
type WebhookAttemptRepository interface {
	Create(ctx context.Context, attempt *models.WebhookAttempt) error
	ListByWebhook(ctx context.Context, orgID, webhookID uint) ([]models.WebhookAttempt, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]models.WebhookAttempt, error)
}

// webhookAttemptRepository implements WebhookAttemptRepository using GORM
type webhookAttemptRepository struct {
	db *gorm.DB
}

// NewWebhookAttemptRepository creates a new WebhookAttemptRepository instance
func NewWebhookAttemptRepository(db *gorm.DB) WebhookAttemptRepository {
	return &webhookAttemptRepository{db: db}
}

// Create records one delivery attempt
func (r *webhookAttemptRepository) Create(ctx context.Context, attempt *models.WebhookAttempt) error {
	result := r.db.WithContext(ctx).Create(attempt)
	if result.Error != nil {
		return fmt.Errorf("failed to create webhook attempt: %w", result.Error)
	}
	return nil
}

// ListByWebhook retrieves attempts for one webhook, newest first
func (r *webhookAttemptRepository) ListByWebhook(ctx context.Context, orgID, webhookID uint) ([]models.WebhookAttempt, error) {
	var attempts []models.WebhookAttempt
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND webhook_id = ?", orgID, webhookID).
		Order("created_at DESC").
		Find(&attempts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list webhook attempts: %w", result.Error)
	}
	return attempts, nil
}

// ListByOrganization retrieves all attempts for an organization, newest first
func (r *webhookAttemptRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.WebhookAttempt, error) {
	var attempts []models.WebhookAttempt
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&attempts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list webhook attempts: %w", result.Error)
	}
	return attempts, nil
}
