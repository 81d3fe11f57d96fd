package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Attribute keys and latency buckets for catalog database instruments.
var (
	attrDBOperation = attribute.Key("db.operation")
	attrDBTable     = attribute.Key("db.table")
	attrDBOutcome   = attribute.Key("db.outcome")
	attrDBPoolState = attribute.Key("pool.state")

	dbQueryBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)

// DBMetricsConfig holds configuration for catalog database metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns the default database metrics configuration.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics instruments the catalog database: statement counts and latency
// by operation, slow statements by table, and connection pool gauges sampled
// on an interval.
type DBMetrics struct {
	statements     *Counter
	latency        *Histogram
	slowStatements *Counter
	pool           *Gauge
	poolMax        *Gauge

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the catalog database instruments on the given meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	var err error
	if m.statements, err = NewCounter(meter,
		"catalog_db_statements_total",
		"Catalog database statements by operation and outcome",
		"{statement}"); err != nil {
		return nil, err
	}
	if m.latency, err = NewHistogram(meter, HistogramOpts{
		Name:        "catalog_db_statement_duration_seconds",
		Description: "Catalog database statement latency distribution",
		Unit:        "s",
		Boundaries:  dbQueryBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowStatements, err = NewCounter(meter,
		"catalog_db_slow_statements_total",
		"Catalog database statements exceeding the slow threshold, by table",
		"{statement}"); err != nil {
		return nil, err
	}
	if m.pool, err = NewGauge(meter,
		"catalog_db_pool_connections",
		"Catalog database pool connections by state",
		"{connection}"); err != nil {
		return nil, err
	}
	if m.poolMax, err = NewGauge(meter,
		"catalog_db_pool_connections_max",
		"Catalog database pool connection limit",
		"{connection}"); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the sql.DB whose pool is sampled. Must be called before
// StartPoolStatsCollection.
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
}

// StartPoolStatsCollection samples pool statistics on the configured
// interval until Stop is called or the context ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		m.logger.Warn("Cannot start pool stats collection: sqlDB not set")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.samplePool(ctx)
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	m.logger.Info("Started catalog database pool stats collection",
		zap.Duration("interval", m.config.PoolStatsInterval))
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return
	}

	stats := sqlDB.Stats()
	m.poolMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.pool.Record(ctx, int64(stats.Idle), attrDBPoolState.String("idle"))
	m.pool.Record(ctx, int64(stats.InUse), attrDBPoolState.String("in_use"))
	m.pool.Record(ctx, int64(stats.OpenConnections), attrDBPoolState.String("open"))
}

// Stop terminates pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordStatement records one completed database statement.
func (m *DBMetrics) RecordStatement(ctx context.Context, operation, table string, duration time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	m.statements.Inc(ctx, attrDBOperation.String(operation), attrDBOutcome.String(outcome))
	m.latency.RecordDuration(ctx, duration, attrDBOperation.String(operation))

	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowStatements.Inc(ctx, attrDBTable.String(table))
	}
}

// DBMetricsPlugin is a gorm plugin that times every statement and feeds the
// catalog database instruments.
type DBMetricsPlugin struct {
	metrics *DBMetrics
	logger  *zap.Logger
}

// NewDBMetricsPlugin creates the statement-timing plugin.
func NewDBMetricsPlugin(metrics *DBMetrics, logger *zap.Logger) *DBMetricsPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBMetricsPlugin{metrics: metrics, logger: logger}
}

// Name returns the plugin name.
func (p *DBMetricsPlugin) Name() string {
	return "catalog_db_metrics"
}

type dbStatementStartKey struct{}

// Initialize hooks a timer around each gorm operation. Row and raw
// statements carry no operation kind, so it is sniffed from the SQL.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name      string
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		if err := h.before("catalog_db_metrics:before_"+h.name, markStart); err != nil {
			return err
		}
		operation := h.operation
		if err := h.after("catalog_db_metrics:after_"+h.name, func(db *gorm.DB) {
			p.observe(db, operation)
		}); err != nil {
			return err
		}
	}
	return nil
}

func markStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbStatementStartKey{}, time.Now())
}

func (p *DBMetricsPlugin) observe(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if operation == "" {
		operation = statementKind(db.Statement.SQL.String())
	}

	var duration time.Duration
	if start, ok := ctx.Value(dbStatementStartKey{}).(time.Time); ok {
		duration = time.Since(start)
	}
	p.metrics.RecordStatement(ctx, operation, db.Statement.Table, duration, db.Error)
}

// statementKind sniffs the operation kind from raw SQL.
func statementKind(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))
	switch {
	case strings.HasPrefix(sql, "SELECT"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}
