package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/relist/backend/internal/domain/catalog"
)

func newMockSellerRepository(t *testing.T) (*GormSellerRepository, *GormRateRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSellerRepository(gormDB), NewGormRateRepository(gormDB), mock, mockDB
}

func TestGormSellerRepository_FindByID(t *testing.T) {
	t.Run("finds existing seller", func(t *testing.T) {
		repo, _, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		sellerID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "marketplace_seller_id", "access_token", "refresh_token", "status"}).
			AddRow(sellerID, "remote-seller", "access-1", "refresh-1", "active")

		mock.ExpectQuery(`SELECT \* FROM "sellers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(sellerID, 1).
			WillReturnRows(rows)

		seller, err := repo.FindByID(context.Background(), sellerID)

		assert.NoError(t, err)
		require.NotNil(t, seller)
		assert.Equal(t, "remote-seller", seller.MarketplaceSellerID)
		assert.Equal(t, catalog.SellerStatusActive, seller.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns domain error for missing seller", func(t *testing.T) {
		repo, _, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		sellerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "sellers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(sellerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		seller, err := repo.FindByID(context.Background(), sellerID)

		assert.Nil(t, seller)
		assert.ErrorIs(t, err, catalog.ErrSellerNotFound)
	})
}

func TestGormSellerRepository_UpdateTokens(t *testing.T) {
	t.Run("persists refreshed pair", func(t *testing.T) {
		repo, _, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		sellerID := uuid.New()
		mock.ExpectExec(`UPDATE "sellers" SET .*"access_token".*"refresh_token".*WHERE id = .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateTokens(context.Background(), sellerID, "access-2", "refresh-2", time.Now().UTC())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing seller surfaces as domain error", func(t *testing.T) {
		repo, _, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "sellers" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateTokens(context.Background(), uuid.New(), "a", "r", time.Now().UTC())

		assert.ErrorIs(t, err, catalog.ErrSellerNotFound)
	})
}

func TestGormRateRepository(t *testing.T) {
	t.Run("reads singleton rate", func(t *testing.T) {
		_, repo, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "rate", "source", "fetched_at"}).
			AddRow(1, decimal.RequireFromString("150.25"), "openexchange", time.Now().UTC())

		mock.ExpectQuery(`SELECT \* FROM "exchange_rates" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(1, 1).
			WillReturnRows(rows)

		rate, err := repo.Current(context.Background())

		assert.NoError(t, err)
		require.NotNil(t, rate)
		assert.True(t, rate.Rate.Equal(decimal.RequireFromString("150.25")))
	})

	t.Run("missing rate surfaces as domain error", func(t *testing.T) {
		_, repo, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "exchange_rates" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(1, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.Current(context.Background())
		assert.ErrorIs(t, err, catalog.ErrRateNotFound)
	})

	t.Run("store upserts the singleton row", func(t *testing.T) {
		_, repo, mock, mockDB := newMockSellerRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "exchange_rates" .* ON CONFLICT \("id"\) DO UPDATE SET .*"rate".*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Store(context.Background(), catalog.ExchangeRate{
			Rate:      decimal.RequireFromString("151.10"),
			Source:    "openexchange",
			FetchedAt: time.Now().UTC(),
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
