package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scraper   ScraperConfig
	Ebay      EbayConfig
	Fx        FxConfig
	Sync      SyncConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// ScraperConfig holds browser scraping configuration
type ScraperConfig struct {
	RemoteURL         string        // DevTools websocket URL (empty = local browser)
	ProxyURL          string        // egress proxy for supplier requests
	Headless          bool          // run the browser headless
	NoSandbox         bool          // disable the browser sandbox (containers)
	BlockResources    bool          // block images/fonts/styles/media
	NavigationTimeout time.Duration // per-page navigation budget
	BatchSize         int           // concurrent pages per batch
	MaxAttempts       int           // scrape attempts per item
	RetryDelay        time.Duration // base delay between attempts
	WaitTimeout       time.Duration // selector wait budget
}

// EbayConfig holds marketplace API settings
type EbayConfig struct {
	APIBaseURL     string
	AuthBaseURL    string
	ClientID       string
	ClientSecret   string
	SiteID         int
	TimeoutSeconds int
	EntriesPerPage int
}

// FxConfig holds exchange-rate refresher settings
type FxConfig struct {
	Endpoint        string
	Base            string
	Quote           string
	RefreshInterval time.Duration
	TimeoutSeconds  int
}

// SyncConfig holds listing-import state machine settings
type SyncConfig struct {
	PageDelay   time.Duration // inter-page spacing
	MaxPages    int           // per-run page ceiling
	PerPage     int           // listings page size
	Concurrency int           // worker concurrency
}

// TelemetryConfig holds tracing and metrics configuration
type TelemetryConfig struct {
	Enabled           bool
	ServiceName       string
	CollectorEndpoint string
	SamplingRatio     float64
	Insecure          bool
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only, disable in prod for security)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// ProfilingConfig holds continuous profiling (Pyroscope) configuration
type ProfilingConfig struct {
	Enabled         bool
	ServerAddress   string // Pyroscope server address (e.g., "http://pyroscope:4040")
	ApplicationName string // Application name for profiles (defaults to app.name)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RELIST_ prefix (e.g., RELIST_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("RELIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Scraper: ScraperConfig{
			RemoteURL:         v.GetString("scraper.remote_url"),
			ProxyURL:          v.GetString("scraper.proxy_url"),
			Headless:          v.GetBool("scraper.headless"),
			NoSandbox:         v.GetBool("scraper.no_sandbox"),
			BlockResources:    v.GetBool("scraper.block_resources"),
			NavigationTimeout: v.GetDuration("scraper.navigation_timeout"),
			BatchSize:         v.GetInt("scraper.batch_size"),
			MaxAttempts:       v.GetInt("scraper.max_attempts"),
			RetryDelay:        v.GetDuration("scraper.retry_delay"),
			WaitTimeout:       v.GetDuration("scraper.wait_timeout"),
		},
		Ebay: EbayConfig{
			APIBaseURL:     v.GetString("ebay.api_base_url"),
			AuthBaseURL:    v.GetString("ebay.auth_base_url"),
			ClientID:       v.GetString("ebay.client_id"),
			ClientSecret:   v.GetString("ebay.client_secret"),
			SiteID:         v.GetInt("ebay.site_id"),
			TimeoutSeconds: v.GetInt("ebay.timeout_seconds"),
			EntriesPerPage: v.GetInt("ebay.entries_per_page"),
		},
		Fx: FxConfig{
			Endpoint:        v.GetString("fx.endpoint"),
			Base:            v.GetString("fx.base"),
			Quote:           v.GetString("fx.quote"),
			RefreshInterval: v.GetDuration("fx.refresh_interval"),
			TimeoutSeconds:  v.GetInt("fx.timeout_seconds"),
		},
		Sync: SyncConfig{
			PageDelay:   v.GetDuration("sync.page_delay"),
			MaxPages:    v.GetInt("sync.max_pages"),
			PerPage:     v.GetInt("sync.per_page"),
			Concurrency: v.GetInt("sync.concurrency"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			ServiceName:       v.GetString("telemetry.service_name"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Profiling: ProfilingConfig{
			Enabled:         v.GetBool("profiling.enabled"),
			ServerAddress:   v.GetString("profiling.server_address"),
			ApplicationName: v.GetString("profiling.application_name"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "relist-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "relist"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Scraper.NavigationTimeout == 0 {
		cfg.Scraper.NavigationTimeout = 30 * time.Second
	}
	if cfg.Scraper.BatchSize == 0 {
		cfg.Scraper.BatchSize = 5
	}
	if cfg.Scraper.MaxAttempts == 0 {
		cfg.Scraper.MaxAttempts = 3
	}
	if cfg.Scraper.RetryDelay == 0 {
		cfg.Scraper.RetryDelay = 2 * time.Second
	}
	if cfg.Scraper.WaitTimeout == 0 {
		cfg.Scraper.WaitTimeout = 10 * time.Second
	}
	if cfg.Fx.Base == "" {
		cfg.Fx.Base = "USD"
	}
	if cfg.Fx.Quote == "" {
		cfg.Fx.Quote = "JPY"
	}
	if cfg.Fx.RefreshInterval == 0 {
		cfg.Fx.RefreshInterval = time.Hour
	}
	if cfg.Fx.TimeoutSeconds == 0 {
		cfg.Fx.TimeoutSeconds = 15
	}
	if cfg.Sync.PageDelay == 0 {
		cfg.Sync.PageDelay = 5 * time.Second
	}
	if cfg.Sync.MaxPages == 0 {
		cfg.Sync.MaxPages = 10
	}
	if cfg.Sync.PerPage == 0 {
		cfg.Sync.PerPage = 100
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 5
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "relist-backend"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Profiling.ServerAddress == "" {
		cfg.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.MaxPages < 1 {
		return fmt.Errorf("sync.max_pages must be at least 1")
	}
	if c.Scraper.BatchSize < 1 {
		return fmt.Errorf("scraper.batch_size must be at least 1")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Ebay.ClientID == "" || c.Ebay.ClientSecret == "" {
			return fmt.Errorf("ebay.client_id and ebay.client_secret are required in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
