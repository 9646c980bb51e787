package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// InboxRepository defines the interface for inbox data access.
// It is the directory used for inbound routing: address -> inbox.
type InboxRepository interface {
	Create(ctx context.Context, inbox *models.Inbox) error
	GetByID(ctx context.Context, id uint) (*models.Inbox, error)
	GetByEmail(ctx context.Context, email string) (*models.Inbox, error)
	GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Inbox, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]models.Inbox, error)
	Delete(ctx context.Context, orgID, id uint) error
}

// inboxRepository implements InboxRepository using GORM
type inboxRepository struct {
	db *gorm.DB
}

// NewInboxRepository creates a new InboxRepository instance
func NewInboxRepository(db *gorm.DB) InboxRepository {
	return &inboxRepository{db: db}
}

// Create creates a new inbox. The address is normalized to lower case
// before insert. Uniqueness is enforced by the database constraint, not
// by a prior lookup, so two concurrent provisioning requests for the
// same address cannot both succeed.
func (r *inboxRepository) Create(ctx context.Context, inbox *models.Inbox) error {
	inbox.Email = strings.ToLower(strings.TrimSpace(inbox.Email))
	result := r.db.WithContext(ctx).Create(inbox)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("inbox with address '%s' already exists: %w", inbox.Email, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create inbox: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an inbox by its ID
func (r *inboxRepository) GetByID(ctx context.Context, id uint) (*models.Inbox, error) {
	var inbox models.Inbox
	result := r.db.WithContext(ctx).First(&inbox, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inbox by ID: %w", result.Error)
	}
	return &inbox, nil
}

// GetByEmail retrieves an inbox by its address. The lookup is
// lower-cased to match the normalization applied on create, since the
// provider may deliver addresses in mixed case.
func (r *inboxRepository) GetByEmail(ctx context.Context, email string) (*models.Inbox, error) {
	var inbox models.Inbox
	email = strings.ToLower(strings.TrimSpace(email))
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&inbox)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inbox by email: %w", result.Error)
	}
	return &inbox, nil
}

// GetByOrganizationAndID retrieves an inbox scoped to an organization.
// An inbox that exists under a different organization is reported as
// not found.
func (r *inboxRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Inbox, error) {
	var inbox models.Inbox
	result := r.db.WithContext(ctx).Where("organization_id = ? AND id = ?", orgID, id).First(&inbox)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inbox: %w", result.Error)
	}
	return &inbox, nil
}

// ListByOrganization retrieves all inboxes for an organization
func (r *inboxRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Inbox, error) {
	var inboxes []models.Inbox
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at DESC").Find(&inboxes)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list inboxes: %w", result.Error)
	}
	return inboxes, nil
}

// Delete deletes an inbox scoped to an organization
func (r *inboxRepository) Delete(ctx context.Context, orgID, id uint) error {
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Delete(&models.Inbox{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete inbox: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
