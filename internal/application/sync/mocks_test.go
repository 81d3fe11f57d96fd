package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/domain/marketplace"
	"github.com/relist/backend/internal/domain/scraping"
)

// MockItemRepository is a mock implementation of catalog.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) FindScrapeTargets(ctx context.Context, sellerID uuid.UUID, after catalog.ScrapeCursor, limit int) ([]catalog.Item, error) {
	args := m.Called(ctx, sellerID, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) UpsertBySellerSKU(ctx context.Context, rows []catalog.ItemUpsert) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockItemRepository) ApplyChange(ctx context.Context, change catalog.ItemChange, scrapedAt time.Time) error {
	args := m.Called(ctx, change, scrapedAt)
	return args.Error(0)
}

func (m *MockItemRepository) MarkScraped(ctx context.Context, id uuid.UUID, scrapedAt time.Time) error {
	args := m.Called(ctx, id, scrapedAt)
	return args.Error(0)
}

func (m *MockItemRepository) IncrementScrapeError(ctx context.Context, id uuid.UUID, scrapedAt time.Time) error {
	args := m.Called(ctx, id, scrapedAt)
	return args.Error(0)
}

func (m *MockItemRepository) MarkSynced(ctx context.Context, ids []uuid.UUID, syncedAt time.Time) error {
	args := m.Called(ctx, ids, syncedAt)
	return args.Error(0)
}

// MockSellerRepository is a mock implementation of catalog.SellerRepository
type MockSellerRepository struct {
	mock.Mock
}

func (m *MockSellerRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Seller), args.Error(1)
}

func (m *MockSellerRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, refreshedAt time.Time) error {
	args := m.Called(ctx, id, accessToken, refreshToken, refreshedAt)
	return args.Error(0)
}

// MockRateRepository is a mock implementation of catalog.RateRepository
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) Current(ctx context.Context) (*catalog.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ExchangeRate), args.Error(1)
}

func (m *MockRateRepository) Store(ctx context.Context, rate catalog.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// MockPlatform is a mock implementation of marketplace.Platform
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) FetchSellerListings(ctx context.Context, req marketplace.ListingsRequest) (*marketplace.ListingsPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.ListingsPage), args.Error(1)
}

func (m *MockPlatform) RefreshAccessToken(ctx context.Context, refreshToken string) (*marketplace.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.TokenPair), args.Error(1)
}

func (m *MockPlatform) ReviseListing(ctx context.Context, accessToken string, rev marketplace.Revision) error {
	args := m.Called(ctx, accessToken, rev)
	return args.Error(0)
}

func (m *MockPlatform) ReviseListings(ctx context.Context, accessToken string, revs []marketplace.Revision) error {
	args := m.Called(ctx, accessToken, revs)
	return args.Error(0)
}

// MockContinuation is a mock implementation of Continuation
type MockContinuation struct {
	mock.Mock
}

func (m *MockContinuation) EmitPageRequest(ctx context.Context, cursor PageCursor, delay time.Duration) error {
	args := m.Called(ctx, cursor, delay)
	return args.Error(0)
}

// MockScrapeEngine is a mock implementation of ScrapeEngine
type MockScrapeEngine struct {
	mock.Mock
}

func (m *MockScrapeEngine) Scrape(ctx context.Context, targets []scraping.Target) []catalog.Observation {
	args := m.Called(ctx, targets)
	switch v := args.Get(0).(type) {
	case func(context.Context, []scraping.Target) []catalog.Observation:
		return v(ctx, targets)
	case []catalog.Observation:
		return v
	default:
		return nil
	}
}
