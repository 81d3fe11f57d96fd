package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	syncapp "github.com/relist/backend/internal/application/sync"
	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/interfaces/http/middleware"
)

// SupplierSyncRunner runs a full supplier scrape-and-classify pass for one
// seller. Implemented by sync.SupplierSyncService.
type SupplierSyncRunner interface {
	Run(ctx context.Context, sellerID uuid.UUID) (catalog.ClassificationSummary, error)
}

// ListingSyncer drives the paginated marketplace import and per-item export.
// Implemented by sync.ListingSyncService.
type ListingSyncer interface {
	SyncPage(ctx context.Context, cursor syncapp.PageCursor) (*syncapp.PageResult, error)
	ExportListing(ctx context.Context, sellerID, itemID uuid.UUID) error
	ReviseItems(ctx context.Context, sellerID uuid.UUID, itemIDs []uuid.UUID) error
}

// SyncHandler exposes the catalog sync pipeline over HTTP
type SyncHandler struct {
	BaseHandler
	supplierSync SupplierSyncRunner
	listingSync  ListingSyncer
	logger       *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(supplierSync SupplierSyncRunner, listingSync ListingSyncer, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		supplierSync: supplierSync,
		listingSync:  listingSync,
		logger:       logger,
	}
}

// RegisterRoutes registers all sync pipeline routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sellers := rg.Group("/sellers/:id")
	{
		sellers.POST("/scrape", h.Scrape)
		sellers.POST("/import", h.Import)
		sellers.POST("/revise", h.Revise)
		sellers.POST("/items/:itemId/export", h.Export)
	}
}

// ScrapeResponse reports the outcome of a supplier sync run
type ScrapeResponse struct {
	SellerID       string `json:"seller_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ChangedCount   int    `json:"changed_count" example:"12"`
	UnchangedCount int    `json:"unchanged_count" example:"80"`
	FailedCount    int    `json:"failed_count" example:"3"`
}

// Scrape runs the supplier sync pipeline for a seller: scrape every tracked
// item from its supplier page, classify the observations, and persist the
// changed ones. The run is synchronous; large catalogs are bounded by the
// engine's batch concurrency.
func (h *SyncHandler) Scrape(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.supplierSync.Run(c.Request.Context(), sellerID)
	if err != nil {
		h.logger.Warn("supplier sync failed",
			zap.String("seller_id", sellerID.String()),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, ScrapeResponse{
		SellerID:       sellerID.String(),
		ChangedCount:   summary.ChangedCount,
		UnchangedCount: summary.UnchangedCount,
		FailedCount:    summary.FailedCount,
	})
}

// ImportResponse reports how far the first page of a listing import got
type ImportResponse struct {
	SellerID       string `json:"seller_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Page           int    `json:"page" example:"1"`
	State          string `json:"state" example:"continuation_emitted"`
	Imported       int    `json:"imported" example:"100"`
	TotalPages     int    `json:"total_pages" example:"4"`
	HasMore        bool   `json:"has_more" example:"true"`
	TokenRefreshed bool   `json:"token_refreshed" example:"false"`
}

// Import starts a marketplace listing import for a seller. Page 1 is
// processed inline; follow-up pages are scheduled as continuation tasks and
// handled by the worker, so a 202 here does not mean the import finished.
func (h *SyncHandler) Import(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.listingSync.SyncPage(c.Request.Context(), syncapp.PageCursor{
		SellerID: sellerID,
		Page:     1,
	})
	if err != nil {
		h.logger.Warn("listing import failed",
			zap.String("seller_id", sellerID.String()),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, ImportResponse{
		SellerID:       result.SellerID.String(),
		Page:           result.Page,
		State:          string(result.State),
		Imported:       result.Imported,
		TotalPages:     result.TotalPages,
		HasMore:        result.HasMore,
		TokenRefreshed: result.TokenRefreshed,
	})
}

// Export pushes the current price and stock of one item to the marketplace
func (h *SyncHandler) Export(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, "item ID must be a valid UUID")
		return
	}

	if err := h.listingSync.ExportListing(c.Request.Context(), sellerID, itemID); err != nil {
		h.logger.Warn("listing export failed",
			zap.String("seller_id", sellerID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ReviseRequest represents a request to revise a batch of listings
type ReviseRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required,min=1,max=100,dive,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// Revise pushes current price and stock for a batch of items
func (h *SyncHandler) Revise(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req ReviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details, ok := middleware.ValidationDetails(err); ok {
			h.ValidationError(c, details)
			return
		}
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "item ID must be a valid UUID: "+raw)
			return
		}
		itemIDs = append(itemIDs, id)
	}

	if err := h.listingSync.ReviseItems(c.Request.Context(), sellerID, itemIDs); err != nil {
		h.logger.Warn("listing revise failed",
			zap.String("seller_id", sellerID.String()),
			zap.Int("items", len(itemIDs)),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
