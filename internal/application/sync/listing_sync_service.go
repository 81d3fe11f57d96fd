package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/domain/marketplace"
	"github.com/relist/backend/internal/infrastructure/telemetry"
)

// ErrPageCeiling is returned when a continuation asks for a page beyond the
// per-run ceiling. It marks a runaway pagination loop, not a platform fault.
var ErrPageCeiling = errors.New("sync: page ceiling exceeded")

// SyncState is the position of a page sync in its lifecycle. It is carried
// on the PageResult for observability; the state machine itself is the
// SyncPage control flow.
type SyncState string

const (
	StatePageRequested  SyncState = "page_requested"
	StatePageFetched    SyncState = "page_fetched"
	StateItemsPersisted SyncState = "items_persisted"
	StateContinuation   SyncState = "continuation_emitted"
	StateComplete       SyncState = "complete"
)

// PageCursor identifies one page of a seller's listing import. It travels
// as the continuation event payload and is never persisted.
type PageCursor struct {
	SellerID uuid.UUID `json:"seller_id"`
	Page     int       `json:"page"`
}

// PageResult reports the outcome of one page sync. It is produced even when
// the sync fails partway so callers can see how far it got.
type PageResult struct {
	SellerID       uuid.UUID `json:"seller_id"`
	Page           int       `json:"page"`
	State          SyncState `json:"state"`
	Imported       int       `json:"imported"`
	TotalPages     int       `json:"total_pages"`
	HasMore        bool      `json:"has_more"`
	TokenRefreshed bool      `json:"token_refreshed"`
}

// Continuation schedules the next page of a listing import. The concrete
// implementation enqueues onto the task queue.
type Continuation interface {
	EmitPageRequest(ctx context.Context, cursor PageCursor, delay time.Duration) error
}

// ListingSyncConfig tunes the listing import state machine.
type ListingSyncConfig struct {
	// PageDelay spaces out successive page fetches
	PageDelay time.Duration
	// MaxPages caps one import run
	MaxPages int
	// PerPage is the listings page size requested from the platform
	PerPage int
}

// Validate applies defaults.
func (c *ListingSyncConfig) Validate() error {
	if c.PageDelay <= 0 {
		c.PageDelay = 5 * time.Second
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	if c.PerPage <= 0 {
		c.PerPage = 100
	}
	return nil
}

// ListingSyncService drives the paged marketplace import and the price/stock
// export path. Every marketplace call runs through a single
// refresh-and-retry-once auth policy.
type ListingSyncService struct {
	sellers      catalog.SellerRepository
	items        catalog.ItemRepository
	platform     marketplace.Platform
	continuation Continuation
	logger       *zap.Logger
	metrics      PipelineMetrics
	config       ListingSyncConfig
}

// NewListingSyncService creates a ListingSyncService.
func NewListingSyncService(
	sellers catalog.SellerRepository,
	items catalog.ItemRepository,
	platform marketplace.Platform,
	continuation Continuation,
	config ListingSyncConfig,
	logger *zap.Logger,
) (*ListingSyncService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ListingSyncService{
		sellers:      sellers,
		items:        items,
		platform:     platform,
		continuation: continuation,
		logger:       logger,
		config:       config,
	}, nil
}

// SetMetrics attaches a pipeline metrics sink.
func (s *ListingSyncService) SetMetrics(metrics PipelineMetrics) {
	s.metrics = metrics
}

// ---------------------------------------------------------------------------
// Import (paged)
// ---------------------------------------------------------------------------

// SyncPage imports one page of the seller's listings and, when the platform
// reports more, schedules the next page. The returned PageResult is non-nil
// even on error and records the furthest state reached.
func (s *ListingSyncService) SyncPage(ctx context.Context, cursor PageCursor) (*PageResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "listing_sync", "page",
		telemetry.WithAttribute(telemetry.SpanAttrSellerID, cursor.SellerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPage, cursor.Page),
	)
	defer span.End()

	result := &PageResult{
		SellerID: cursor.SellerID,
		Page:     cursor.Page,
		State:    StatePageRequested,
	}
	defer func() {
		telemetry.SetAttribute(span, telemetry.SpanAttrSyncState, string(result.State))
	}()

	if cursor.Page < 1 {
		cursor.Page = 1
		result.Page = 1
	}
	if cursor.Page > s.config.MaxPages {
		err := fmt.Errorf("%w: page %d, ceiling %d", ErrPageCeiling, cursor.Page, s.config.MaxPages)
		telemetry.RecordError(span, err)
		return result, err
	}

	seller, err := s.sellers.FindByID(ctx, cursor.SellerID)
	if err != nil {
		err = fmt.Errorf("sync: loading seller %s: %w", cursor.SellerID, err)
		telemetry.RecordError(span, err)
		return result, err
	}

	var page *marketplace.ListingsPage
	err = s.withAuthRetry(ctx, seller, result, func(token string) error {
		var fetchErr error
		page, fetchErr = s.platform.FetchSellerListings(ctx, marketplace.ListingsRequest{
			SellerID:    seller.MarketplaceSellerID,
			AccessToken: token,
			Page:        cursor.Page,
			PerPage:     s.config.PerPage,
		})
		return fetchErr
	})
	if err != nil {
		err = fmt.Errorf("sync: fetching listings page %d: %w", cursor.Page, err)
		telemetry.RecordError(span, err)
		return result, err
	}
	result.State = StatePageFetched
	result.TotalPages = page.TotalPages

	rows := normalizeListings(seller.ID, page.Items, time.Now().UTC())
	if err := s.items.UpsertBySellerSKU(ctx, rows); err != nil {
		err = fmt.Errorf("sync: persisting listings page %d: %w", cursor.Page, err)
		telemetry.RecordError(span, err)
		return result, err
	}
	result.State = StateItemsPersisted
	result.Imported = len(rows)
	if s.metrics != nil {
		s.metrics.RecordPageImported(ctx, cursor.SellerID, len(rows))
	}

	// A server HasMore flag alone is not trusted: an empty page or a page
	// counter at the reported total means the pagination is done regardless.
	result.HasMore = page.HasMore && cursor.Page < page.TotalPages && len(page.Items) > 0

	if !result.HasMore || cursor.Page >= s.config.MaxPages {
		if result.HasMore {
			s.logger.Warn("listing import stopped at page ceiling",
				zap.String("seller_id", cursor.SellerID.String()),
				zap.Int("page", cursor.Page))
		}
		result.State = StateComplete
		return result, nil
	}

	next := PageCursor{SellerID: cursor.SellerID, Page: cursor.Page + 1}
	if err := s.continuation.EmitPageRequest(ctx, next, s.config.PageDelay); err != nil {
		err = fmt.Errorf("sync: scheduling page %d: %w", next.Page, err)
		telemetry.RecordError(span, err)
		return result, err
	}
	telemetry.AddEvent(span, "continuation_emitted", telemetry.SpanAttrPage, next.Page)
	result.State = StateContinuation
	return result, nil
}

// normalizeListings converts platform listings to idempotent upsert rows.
func normalizeListings(sellerID uuid.UUID, listings []marketplace.RemoteListing, importedAt time.Time) []catalog.ItemUpsert {
	rows := make([]catalog.ItemUpsert, 0, len(listings))
	for i := range listings {
		listing := &listings[i]
		rows = append(rows, catalog.ItemUpsert{
			SellerID:   sellerID,
			SKU:        listing.ItemID,
			Title:      listing.Title,
			Price:      listing.Price,
			Stock:      listing.AvailableStock(),
			Condition:  marketplace.MapCondition(listing.ConditionID),
			Status:     marketplace.MapListingStatus(listing.ListingStatus),
			WatchCount: listing.WatchCount,
			ImportedAt: importedAt,
		})
	}
	return rows
}

// ---------------------------------------------------------------------------
// Export (price/stock push)
// ---------------------------------------------------------------------------

// ExportListing pushes a single item's current price and stock to the
// marketplace.
func (s *ListingSyncService) ExportListing(ctx context.Context, sellerID, itemID uuid.UUID) error {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("sync: loading item %s: %w", itemID, err)
	}
	if item.SellerID != sellerID {
		return catalog.ErrItemNotFound
	}

	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("sync: loading seller %s: %w", sellerID, err)
	}

	err = s.withAuthRetry(ctx, seller, nil, func(token string) error {
		return s.platform.ReviseListing(ctx, token, marketplace.Revision{
			ItemID: item.SKU,
			Price:  item.Price,
			Stock:  item.Stock,
		})
	})
	if err != nil {
		return fmt.Errorf("sync: revising item %s: %w", itemID, err)
	}
	if s.metrics != nil {
		s.metrics.RecordListingsRevised(ctx, sellerID, 1)
	}

	return s.items.MarkSynced(ctx, []uuid.UUID{itemID}, time.Now().UTC())
}

// ReviseItems pushes price and stock for a batch of items.
func (s *ListingSyncService) ReviseItems(ctx context.Context, sellerID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}

	items, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("sync: loading items: %w", err)
	}

	revisions := make([]marketplace.Revision, 0, len(items))
	revised := make([]uuid.UUID, 0, len(items))
	for i := range items {
		if items[i].SellerID != sellerID {
			continue
		}
		revisions = append(revisions, marketplace.Revision{
			ItemID: items[i].SKU,
			Price:  items[i].Price,
			Stock:  items[i].Stock,
		})
		revised = append(revised, items[i].ID)
	}
	if len(revisions) == 0 {
		return nil
	}

	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("sync: loading seller %s: %w", sellerID, err)
	}

	err = s.withAuthRetry(ctx, seller, nil, func(token string) error {
		return s.platform.ReviseListings(ctx, token, revisions)
	})
	if err != nil {
		return fmt.Errorf("sync: revising items: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordListingsRevised(ctx, sellerID, len(revised))
	}

	return s.items.MarkSynced(ctx, revised, time.Now().UTC())
}

// ---------------------------------------------------------------------------
// Auth Retry Policy
// ---------------------------------------------------------------------------

// withAuthRetry runs op with the seller's access token. On an auth error it
// refreshes the token pair, persists it, and retries op exactly once with
// the fresh token. The persist happens before the retry so a crash between
// the two never strands an unrecorded token. A second auth failure
// propagates to the caller.
func (s *ListingSyncService) withAuthRetry(ctx context.Context, seller *catalog.Seller, result *PageResult, op func(token string) error) error {
	err := op(seller.AccessToken)
	if err == nil || !marketplace.IsAuthError(err) {
		return err
	}

	s.logger.Info("access token rejected, refreshing",
		zap.String("seller_id", seller.ID.String()),
		zap.Error(err))

	pair, refreshErr := s.platform.RefreshAccessToken(ctx, seller.RefreshToken)
	if refreshErr != nil {
		return fmt.Errorf("sync: refreshing token for seller %s: %w", seller.ID, refreshErr)
	}

	now := time.Now().UTC()
	if persistErr := s.sellers.UpdateTokens(ctx, seller.ID, pair.AccessToken, pair.RefreshToken, now); persistErr != nil {
		return fmt.Errorf("sync: persisting refreshed tokens for seller %s: %w", seller.ID, persistErr)
	}
	seller.AccessToken = pair.AccessToken
	seller.RefreshToken = pair.RefreshToken
	seller.TokenRefreshedAt = &now
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "token_refreshed",
		telemetry.SpanAttrSellerID, seller.ID.String())
	if result != nil {
		result.TokenRefreshed = true
	}
	if s.metrics != nil {
		s.metrics.RecordTokenRefresh(ctx, seller.ID)
	}

	return op(seller.AccessToken)
}
