package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/infrastructure/persistence/models"
)

// GormRateRepository implements catalog.RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// Current returns the singleton exchange rate.
func (r *GormRateRepository) Current(ctx context.Context) (*catalog.ExchangeRate, error) {
	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrRateNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Store replaces the singleton rate row.
func (r *GormRateRepository) Store(ctx context.Context, rate catalog.ExchangeRate) error {
	var model models.ExchangeRateModel
	model.FromDomain(&rate)
	model.UpdatedAt = time.Now().UTC()

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rate", "source", "fetched_at", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Ensure interface compliance
var _ catalog.RateRepository = (*GormRateRepository)(nil)
