package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/inboxkit/inboxkit/internal/models"
	"gorm.io/gorm"
)

// ApiKeyRepository defines the interface for API key data access
type ApiKeyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) error
	GetByKey(ctx context.Context, key string) (*models.ApiKey, error)
}

// apiKeyRepository implements ApiKeyRepository using GORM
type apiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository creates a new ApiKeyRepository instance
func NewApiKeyRepository(db *gorm.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

// Create creates a new API key
func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) error {
	result := r.db.WithContext(ctx).Create(key)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("api key already exists: %w", ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create api key: %w", result.Error)
	}
	return nil
}

// GetByKey retrieves an API key by its value with the owning organization preloaded
func (r *apiKeyRepository) GetByKey(ctx context.Context, key string) (*models.ApiKey, error) {
	var apiKey models.ApiKey
	result := r.db.WithContext(ctx).Preload("Organization").Where("key = ?", key).First(&apiKey)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", result.Error)
	}
	return &apiKey, nil
}
