package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
}

// organizationRepository implements OrganizationRepository using GORM
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository instance
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// Create creates a new organization
func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	result := r.db.WithContext(ctx).Create(org)
	if result.Error != nil {
		return fmt.Errorf("failed to create organization: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an organization by its ID
func (r *organizationRepository) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	var org models.Organization
	result := r.db.WithContext(ctx).First(&org, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization by ID: %w", result.Error)
	}
	return &org, nil
}
