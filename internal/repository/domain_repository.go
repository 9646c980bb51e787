package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// DomainRepository defines the interface for domain data access
type DomainRepository interface {
	Create(ctx context.Context, domain *models.Domain) error
	GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Domain, error)
	GetByOrganizationAndName(ctx context.Context, orgID uint, name string) (*models.Domain, error)
	GetVerifiedByOrganizationAndName(ctx context.Context, orgID uint, name string) (*models.Domain, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]models.Domain, error)
	Update(ctx context.Context, domain *models.Domain) error
	Delete(ctx context.Context, orgID, id uint) error
}

// domainRepository implements DomainRepository using GORM
type domainRepository struct {
	db *gorm.DB
}

// NewDomainRepository creates a new DomainRepository instance
func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{db: db}
}

// Create creates a new domain. Uniqueness is per (organization, name).
func (r *domainRepository) Create(ctx context.Context, domain *models.Domain) error {
	domain.Name = strings.ToLower(strings.TrimSpace(domain.Name))
	result := r.db.WithContext(ctx).Create(domain)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("domain '%s' already exists for this organization: %w", domain.Name, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create domain: %w", result.Error)
	}
	return nil
}

// GetByOrganizationAndID retrieves a domain scoped to an organization
func (r *domainRepository) GetByOrganizationAndID(ctx context.Context, orgID, id uint) (*models.Domain, error) {
	var domain models.Domain
	result := r.db.WithContext(ctx).Where("organization_id = ? AND id = ?", orgID, id).First(&domain)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get domain: %w", result.Error)
	}
	return &domain, nil
}

// GetByOrganizationAndName retrieves a domain by name scoped to an organization
func (r *domainRepository) GetByOrganizationAndName(ctx context.Context, orgID uint, name string) (*models.Domain, error) {
	var domain models.Domain
	name = strings.ToLower(strings.TrimSpace(name))
	result := r.db.WithContext(ctx).Where("organization_id = ? AND name = ?", orgID, name).First(&domain)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get domain by name: %w", result.Error)
	}
	return &domain, nil
}

// GetVerifiedByOrganizationAndName retrieves a verified domain by name.
// Unverified domains are reported as not found, which is what gates
// custom-domain inbox creation.
func (r *domainRepository) GetVerifiedByOrganizationAndName(ctx context.Context, orgID uint, name string) (*models.Domain, error) {
	var domain models.Domain
	name = strings.ToLower(strings.TrimSpace(name))
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND name = ? AND verified = ?", orgID, name, true).
		First(&domain)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get verified domain: %w", result.Error)
	}
	return &domain, nil
}

// ListByOrganization retrieves all domains for an organization
func (r *domainRepository) ListByOrganization(ctx context.Context, orgID uint) ([]models.Domain, error) {
	var domains []models.Domain
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at DESC").Find(&domains)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list domains: %w", result.Error)
	}
	return domains, nil
}

// Update persists record and verification changes for a domain
func (r *domainRepository) Update(ctx context.Context, domain *models.Domain) error {
	result := r.db.WithContext(ctx).Save(domain)
	if result.Error != nil {
		return fmt.Errorf("failed to update domain: %w", result.Error)
	}
	return nil
}

// Delete deletes a domain scoped to an organization
func (r *domainRepository) Delete(ctx context.Context, orgID, id uint) error {
	result := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Delete(&models.Domain{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete domain: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
