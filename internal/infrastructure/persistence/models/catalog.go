package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/relist/backend/internal/domain/catalog"
)

// CatalogItemModel is the persistence model for the catalog Item entity.
type CatalogItemModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	SellerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_item_seller_sku,priority:1;index:idx_catalog_item_scrape,priority:1"`
	SKU      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_catalog_item_seller_sku,priority:2"`
	Title    string    `gorm:"type:varchar(255)"`

	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SupplierCost decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Freight      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Profit       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ProfitRate   decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	FeeRate      decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	PromoteRate  decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`

	Stock       int                   `gorm:"not null;default:0"`
	ScrapeError int                   `gorm:"not null;default:0;column:scrape_error"`
	SupplierURL string                `gorm:"type:text;index:idx_catalog_item_scrape,priority:2"`
	Condition   catalog.ItemCondition `gorm:"type:varchar(20);not null;default:'used'"`
	Status      catalog.ItemStatus    `gorm:"type:varchar(20);not null;default:'active'"`
	WatchCount  int                   `gorm:"not null;default:0"`

	ImportedAt time.Time  `gorm:"not null"`
	ScrapedAt  *time.Time `gorm:"index"`
	SyncedAt   *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the persistence model to a domain Item entity.
func (m *CatalogItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		ID:               m.ID,
		SellerID:         m.SellerID,
		SKU:              m.SKU,
		Title:            m.Title,
		Price:            m.Price,
		SupplierCost:     m.SupplierCost,
		Freight:          m.Freight,
		Profit:           m.Profit,
		ProfitRate:       m.ProfitRate,
		FeeRate:          m.FeeRate,
		PromoteRate:      m.PromoteRate,
		Stock:            m.Stock,
		ScrapeErrorCount: m.ScrapeError,
		SupplierURL:      m.SupplierURL,
		Condition:        m.Condition,
		Status:           m.Status,
		WatchCount:       m.WatchCount,
		ImportedAt:       m.ImportedAt,
		ScrapedAt:        m.ScrapedAt,
		SyncedAt:         m.SyncedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Item entity.
func (m *CatalogItemModel) FromDomain(item *catalog.Item) {
	m.ID = item.ID
	m.SellerID = item.SellerID
	m.SKU = item.SKU
	m.Title = item.Title
	m.Price = item.Price
	m.SupplierCost = item.SupplierCost
	m.Freight = item.Freight
	m.Profit = item.Profit
	m.ProfitRate = item.ProfitRate
	m.FeeRate = item.FeeRate
	m.PromoteRate = item.PromoteRate
	m.Stock = item.Stock
	m.ScrapeError = item.ScrapeErrorCount
	m.SupplierURL = item.SupplierURL
	m.Condition = item.Condition
	m.Status = item.Status
	m.WatchCount = item.WatchCount
	m.ImportedAt = item.ImportedAt
	m.ScrapedAt = item.ScrapedAt
	m.SyncedAt = item.SyncedAt
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
}

// SellerModel is the persistence model for the Seller entity.
type SellerModel struct {
	ID                  uuid.UUID            `gorm:"type:uuid;primary_key"`
	MarketplaceSellerID string               `gorm:"type:varchar(64);not null;uniqueIndex"`
	AccessToken         string               `gorm:"type:text;not null"`
	RefreshToken        string               `gorm:"type:text;not null"`
	Status              catalog.SellerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	TokenRefreshedAt    *time.Time
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SellerModel) TableName() string {
	return "sellers"
}

// ToDomain converts the persistence model to a domain Seller entity.
func (m *SellerModel) ToDomain() *catalog.Seller {
	return &catalog.Seller{
		ID:                  m.ID,
		MarketplaceSellerID: m.MarketplaceSellerID,
		AccessToken:         m.AccessToken,
		RefreshToken:        m.RefreshToken,
		Status:              m.Status,
		TokenRefreshedAt:    m.TokenRefreshedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Seller entity.
func (m *SellerModel) FromDomain(seller *catalog.Seller) {
	m.ID = seller.ID
	m.MarketplaceSellerID = seller.MarketplaceSellerID
	m.AccessToken = seller.AccessToken
	m.RefreshToken = seller.RefreshToken
	m.Status = seller.Status
	m.TokenRefreshedAt = seller.TokenRefreshedAt
	m.CreatedAt = seller.CreatedAt
	m.UpdatedAt = seller.UpdatedAt
}

// ExchangeRateModel is the persistence model for the singleton exchange
// rate. The fixed primary key keeps the table at one row.
type ExchangeRateModel struct {
	ID        int             `gorm:"primary_key"`
	Rate      decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Source    string          `gorm:"type:varchar(64);not null"`
	FetchedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate.
func (m *ExchangeRateModel) ToDomain() *catalog.ExchangeRate {
	return &catalog.ExchangeRate{
		Rate:      m.Rate,
		Source:    m.Source,
		FetchedAt: m.FetchedAt,
	}
}

// FromDomain populates the persistence model from a domain ExchangeRate.
func (m *ExchangeRateModel) FromDomain(rate *catalog.ExchangeRate) {
	m.ID = 1
	m.Rate = rate.Rate
	m.Source = rate.Source
	m.FetchedAt = rate.FetchedAt
}
