package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/infrastructure/persistence/models"
)

// GormSellerRepository implements catalog.SellerRepository using GORM
type GormSellerRepository struct {
	db *gorm.DB
}

// NewGormSellerRepository creates a new GormSellerRepository
func NewGormSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// FindByID finds a seller by its ID
func (r *GormSellerRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Seller, error) {
	var model models.SellerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrSellerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateTokens durably persists a refreshed token pair.
func (r *GormSellerRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, refreshedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.SellerModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":       accessToken,
			"refresh_token":      refreshToken,
			"token_refreshed_at": refreshedAt,
			"updated_at":         refreshedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrSellerNotFound
	}
	return nil
}

// Ensure interface compliance
var _ catalog.SellerRepository = (*GormSellerRepository)(nil)
