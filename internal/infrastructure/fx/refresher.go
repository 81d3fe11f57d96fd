package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/relist/backend/internal/domain/catalog"
)

// ErrRateUnavailable indicates the rates endpoint did not return a usable
// quote.
var ErrRateUnavailable = errors.New("fx: exchange rate unavailable")

// Config holds the rates endpoint configuration.
type Config struct {
	// Endpoint is the JSON rates API URL
	Endpoint string
	// Base is the marketplace currency (e.g. "USD")
	Base string
	// Quote is the supplier currency (e.g. "JPY")
	Quote string
	// RefreshInterval spaces out periodic refreshes
	RefreshInterval time.Duration
	// TimeoutSeconds bounds each fetch
	TimeoutSeconds int
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("fx: endpoint is required")
	}
	if c.Base == "" {
		c.Base = "USD"
	}
	if c.Quote == "" {
		c.Quote = "JPY"
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = time.Hour
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	return nil
}

// ratesResponse is the subset of the rates payload we read.
type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// RateRecorder receives the refreshed quote as a gauge. Implemented by the
// telemetry package; nil disables recording.
type RateRecorder interface {
	RecordExchangeRate(ctx context.Context, rate float64)
}

// Refresher polls the rates endpoint and persists the quote the pricing
// path reads.
type Refresher struct {
	client   *resty.Client
	rates    catalog.RateRepository
	config   Config
	logger   *zap.Logger
	recorder RateRecorder
}

// NewRefresher creates a Refresher.
func NewRefresher(config Config, rates catalog.RateRepository, logger *zap.Logger) (*Refresher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(time.Duration(config.TimeoutSeconds) * time.Second)

	return &Refresher{
		client: client,
		rates:  rates,
		config: config,
		logger: logger,
	}, nil
}

// SetRecorder attaches a rate gauge recorder.
func (r *Refresher) SetRecorder(recorder RateRecorder) {
	r.recorder = recorder
}

// RefreshOnce fetches the current rate and stores it.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	var payload ratesResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("base", r.config.Base).
		SetQueryParam("symbols", r.config.Quote).
		SetResult(&payload).
		Get(r.config.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: HTTP %d", ErrRateUnavailable, resp.StatusCode())
	}

	rate, ok := payload.Rates[r.config.Quote]
	if !ok {
		return fmt.Errorf("%w: no %s quote in response", ErrRateUnavailable, r.config.Quote)
	}
	if rate.Sign() <= 0 {
		return fmt.Errorf("%w: bad quote %s", ErrRateUnavailable, rate)
	}

	if err := r.rates.Store(ctx, catalog.ExchangeRate{
		Rate:      rate,
		Source:    r.config.Endpoint,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("fx: storing rate: %w", err)
	}

	if r.recorder != nil {
		r.recorder.RecordExchangeRate(ctx, rate.InexactFloat64())
	}

	r.logger.Info("exchange rate refreshed",
		zap.String("pair", r.config.Base+"/"+r.config.Quote),
		zap.String("rate", rate.String()))
	return nil
}

// Run refreshes immediately and then on the configured interval until the
// context is cancelled. A failed refresh keeps the previous stored rate.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshOnce(ctx); err != nil {
		r.logger.Warn("initial exchange rate refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.logger.Warn("exchange rate refresh failed", zap.Error(err))
			}
		}
	}
}
