package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/infrastructure/persistence/models"
)

// GormCatalogItemRepository implements catalog.ItemRepository using GORM
type GormCatalogItemRepository struct {
	db *gorm.DB
}

// NewGormCatalogItemRepository creates a new GormCatalogItemRepository
func NewGormCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// FindByID finds an item by its ID
func (r *GormCatalogItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds items by their IDs; missing IDs are silently skipped
func (r *GormCatalogItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var itemModels []models.CatalogItemModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainItems(itemModels), nil
}

// FindScrapeTargets returns the next batch of items eligible for scraping,
// keyset-paginated after the cursor. Keyset pagination keeps the walk stable
// even while a concurrent persist knocks items out of the eligible set; an
// offset would skip a row every time a scrape_error counter crossed the
// quarantine threshold mid-pass.
func (r *GormCatalogItemRepository) FindScrapeTargets(ctx context.Context, sellerID uuid.UUID, after catalog.ScrapeCursor, limit int) ([]catalog.Item, error) {
	query := r.db.WithContext(ctx).
		Where("seller_id = ? AND supplier_url <> '' AND status = ? AND scrape_error < ?",
			sellerID, catalog.ItemStatusActive, catalog.MaxScrapeErrors)
	if after != (catalog.ScrapeCursor{}) {
		// Row-value comparison works on both postgres and sqlite.
		query = query.Where("(supplier_url, id) > (?, ?)", after.SupplierURL, after.ItemID)
	}

	var itemModels []models.CatalogItemModel
	if err := query.
		Order("supplier_url ASC, id ASC").
		Limit(limit).
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainItems(itemModels), nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// UpsertBySellerSKU inserts or updates rows keyed by (seller_id, sku). Only
// marketplace-owned columns are written on conflict so supplier-derived
// state survives re-imports.
func (r *GormCatalogItemRepository) UpsertBySellerSKU(ctx context.Context, rows []catalog.ItemUpsert) error {
	if len(rows) == 0 {
		return nil
	}

	now := time.Now().UTC()
	itemModels := make([]models.CatalogItemModel, 0, len(rows))
	for _, row := range rows {
		itemModels = append(itemModels, models.CatalogItemModel{
			ID:         uuid.New(),
			SellerID:   row.SellerID,
			SKU:        row.SKU,
			Title:      row.Title,
			Price:      row.Price,
			Stock:      row.Stock,
			Condition:  row.Condition,
			Status:     row.Status,
			WatchCount: row.WatchCount,
			ImportedAt: row.ImportedAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "price", "stock", "condition", "status",
				"watch_count", "imported_at", "updated_at",
			}),
		}).
		Create(&itemModels).Error
}

// ApplyChange writes the recomputed pricing fields and resets the scrape
// error counter.
func (r *GormCatalogItemRepository) ApplyChange(ctx context.Context, change catalog.ItemChange, scrapedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("id = ?", change.ItemID).
		Updates(map[string]interface{}{
			"price":         change.Price,
			"supplier_cost": change.Cost,
			"profit":        change.Profit,
			"stock":         change.Stock,
			"scrape_error":  0,
			"scraped_at":    scrapedAt,
			"updated_at":    scrapedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrItemNotFound
	}
	return nil
}

// MarkScraped resets the scrape error counter without touching pricing.
func (r *GormCatalogItemRepository) MarkScraped(ctx context.Context, id uuid.UUID, scrapedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"scrape_error": 0,
			"scraped_at":   scrapedAt,
			"updated_at":   scrapedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrItemNotFound
	}
	return nil
}

// IncrementScrapeError bumps the consecutive failure counter.
func (r *GormCatalogItemRepository) IncrementScrapeError(ctx context.Context, id uuid.UUID, scrapedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"scrape_error": gorm.Expr("scrape_error + 1"),
			"scraped_at":   scrapedAt,
			"updated_at":   scrapedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrItemNotFound
	}
	return nil
}

// MarkSynced stamps the items as pushed to the marketplace.
func (r *GormCatalogItemRepository) MarkSynced(ctx context.Context, ids []uuid.UUID, syncedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"synced_at":  syncedAt,
			"updated_at": syncedAt,
		}).Error
}

func toDomainItems(itemModels []models.CatalogItemModel) []catalog.Item {
	items := make([]catalog.Item, len(itemModels))
	for i := range itemModels {
		items[i] = *itemModels[i].ToDomain()
	}
	return items
}

// Ensure interface compliance
var _ catalog.ItemRepository = (*GormCatalogItemRepository)(nil)
