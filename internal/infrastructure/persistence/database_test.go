package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_SellerScopedQueries(t *testing.T) {
	type catalogRow struct {
		ID       uint
		SellerID string
		Title    string
	}

	t.Run("filters rows by seller_id with a parameterized query", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		sellerID := "550e8400-e29b-41d4-a716-446655440000"
		mock.ExpectQuery(`SELECT \* FROM "catalog_rows" WHERE seller_id = \$1`).
			WithArgs(sellerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title"}).
				AddRow(1, sellerID, "Vintage Camera"))

		var rows []catalogRow
		require.NoError(t, db.DB.Where("seller_id = ?", sellerID).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, sellerID, rows[0].SellerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("parameterized queries neutralize injection attempts", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		sellerID := "seller'; DROP TABLE sellers; --"
		mock.ExpectQuery(`SELECT \* FROM "catalog_rows" WHERE seller_id = \$1`).
			WithArgs(sellerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title"}))

		var rows []catalogRow
		require.NoError(t, db.DB.Where("seller_id = ?", sellerID).Find(&rows).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("seller filter chains with ordering and pagination", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		sellerID := "seller-pagination"
		mock.ExpectQuery(`SELECT \* FROM "catalog_rows" WHERE seller_id = \$1 ORDER BY id ASC LIMIT \$2 OFFSET \$3`).
			WithArgs(sellerID, 10, 5).
			WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title"}).
				AddRow(6, sellerID, "Film Scanner"))

		var rows []catalogRow
		err := db.DB.Where("seller_id = ?", sellerID).
			Order("id ASC").Limit(10).Offset(5).
			Find(&rows).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// gorm pings once during Open.
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	db := &Database{DB: gormDB}

	mock.ExpectPing()
	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	type catalogRow struct {
		ID    uint
		Title string
	}

	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		// postgres inserts go through Query with a RETURNING clause.
		mock.ExpectQuery(`INSERT INTO "catalog_rows"`).
			WithArgs("Vintage Lens").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&catalogRow{Title: "Vintage Lens"}).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
