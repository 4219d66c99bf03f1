package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/waconnect/storefront-backend/models"
)

// BusinessSource resolves tenants by their storefront subdomain.
type BusinessSource interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*models.Business, error)
}

// BusinessStore is the postgres-backed BusinessSource. Only active tenants
// are visible to the storefront.
type BusinessStore struct {
	DB *gorm.DB
}

func NewBusinessStore(db *gorm.DB) *BusinessStore {
	return &BusinessStore{DB: db}
}

func (s *BusinessStore) FindBySubdomain(ctx context.Context, subdomain string) (*models.Business, error) {
	var b models.Business
	err := s.DB.WithContext(ctx).Where("subdomain = ? AND is_active = ?", subdomain, true).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
