package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newDBMetricsFixture(t *testing.T, cfg DBMetricsConfig) (*DBMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewDBMetrics(provider.Meter("relist-db-test"), cfg, zap.NewNop())
	require.NoError(t, err)
	return metrics, reader
}

func collectedMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestDBMetrics_RecordStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("counts statements and latency", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		metrics.RecordStatement(ctx, "SELECT", "catalog_items", 50*time.Millisecond, nil)

		_, found := collectedMetric(t, reader, "catalog_db_statements_total")
		assert.True(t, found)
		_, found = collectedMetric(t, reader, "catalog_db_statement_duration_seconds")
		assert.True(t, found)
	})

	t.Run("slow statement counted by table", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 100 * time.Millisecond,
		})

		metrics.RecordStatement(ctx, "SELECT", "catalog_items", 250*time.Millisecond, nil)

		m, found := collectedMetric(t, reader, "catalog_db_slow_statements_total")
		require.True(t, found)
		sum := m.Data.(metricdata.Sum[int64])
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(1), sum.DataPoints[0].Value)
		table, ok := sum.DataPoints[0].Attributes.Value(attrDBTable)
		require.True(t, ok)
		assert.Equal(t, "catalog_items", table.AsString())
	})

	t.Run("fast statement is not slow", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		metrics.RecordStatement(ctx, "SELECT", "sellers", 50*time.Millisecond, nil)

		_, found := collectedMetric(t, reader, "catalog_db_slow_statements_total")
		assert.False(t, found)
	})

	t.Run("failed statement carries error outcome", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		metrics.RecordStatement(ctx, "update", "exchange_rates", time.Millisecond, assert.AnError)

		m, found := collectedMetric(t, reader, "catalog_db_statements_total")
		require.True(t, found)
		sum := m.Data.(metricdata.Sum[int64])
		require.Len(t, sum.DataPoints, 1)
		outcome, ok := sum.DataPoints[0].Attributes.Value(attrDBOutcome)
		require.True(t, ok)
		assert.Equal(t, "error", outcome.AsString())
		op, ok := sum.DataPoints[0].Attributes.Value(attrDBOperation)
		require.True(t, ok)
		assert.Equal(t, "UPDATE", op.AsString())
	})

	t.Run("empty operation reported as unknown", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		metrics.RecordStatement(ctx, "", "catalog_items", time.Millisecond, nil)

		m, found := collectedMetric(t, reader, "catalog_db_statements_total")
		require.True(t, found)
		sum := m.Data.(metricdata.Sum[int64])
		op, ok := sum.DataPoints[0].Attributes.Value(attrDBOperation)
		require.True(t, ok)
		assert.Equal(t, "UNKNOWN", op.AsString())
	})
}

func TestDBMetrics_PoolStats(t *testing.T) {
	t.Run("samples pool gauges", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DBMetricsConfig{
			Enabled:           true,
			PoolStatsInterval: 50 * time.Millisecond,
		})

		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()
		metrics.SetSQLDB(mockDB)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		metrics.StartPoolStatsCollection(ctx)
		time.Sleep(100 * time.Millisecond)
		metrics.Stop()

		_, found := collectedMetric(t, reader, "catalog_db_pool_connections")
		assert.True(t, found)
		_, found = collectedMetric(t, reader, "catalog_db_pool_connections_max")
		assert.True(t, found)
	})

	t.Run("no-op without a database handle", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		metrics.StartPoolStatsCollection(context.Background())
		metrics.Stop()

		_, found := collectedMetric(t, reader, "catalog_db_pool_connections")
		assert.False(t, found)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		metrics, _ := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()
		metrics.SetSQLDB(mockDB)

		metrics.StartPoolStatsCollection(context.Background())
		metrics.Stop()
		assert.NotPanics(t, metrics.Stop)
	})
}

func TestDBMetricsPlugin(t *testing.T) {
	t.Run("times a query end to end", func(t *testing.T) {
		metrics, reader := newDBMetricsFixture(t, DefaultDBMetricsConfig())

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)
		require.NoError(t, db.Use(NewDBMetricsPlugin(metrics, zap.NewNop())))

		type CatalogItemModel struct {
			ID  uint `gorm:"primarykey"`
			SKU string
		}
		require.NoError(t, db.AutoMigrate(&CatalogItemModel{}))
		require.NoError(t, db.Create(&CatalogItemModel{SKU: "110001"}).Error)

		var items []CatalogItemModel
		require.NoError(t, db.Find(&items).Error)

		m, found := collectedMetric(t, reader, "catalog_db_statements_total")
		require.True(t, found)
		sum := m.Data.(metricdata.Sum[int64])

		operations := make(map[string]int64)
		for _, dp := range sum.DataPoints {
			op, ok := dp.Attributes.Value(attrDBOperation)
			require.True(t, ok)
			operations[op.AsString()] += dp.Value
		}
		assert.GreaterOrEqual(t, operations["INSERT"], int64(1))
		assert.GreaterOrEqual(t, operations["SELECT"], int64(1))
	})

	t.Run("plugin name", func(t *testing.T) {
		metrics, _ := newDBMetricsFixture(t, DefaultDBMetricsConfig())
		assert.Equal(t, "catalog_db_metrics", NewDBMetricsPlugin(metrics, nil).Name())
	})
}

func TestStatementKind(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{"SELECT * FROM catalog_items", "SELECT"},
		{"  select id from sellers", "SELECT"},
		{"INSERT INTO catalog_items (sku) VALUES ('110001')", "INSERT"},
		{"update exchange_rates set rate = 0.0069", "UPDATE"},
		{"DELETE FROM catalog_items WHERE id = 1", "DELETE"},
		{"CREATE TABLE catalog_items", "OTHER"},
		{"", "OTHER"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statementKind(tc.sql), tc.sql)
	}
}
