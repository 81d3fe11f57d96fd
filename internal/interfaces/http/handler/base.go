package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/relist/backend/internal/application/sync"
	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/domain/marketplace"
	"github.com/relist/backend/internal/domain/pricing"
	"github.com/relist/backend/internal/domain/scraping"
	"github.com/relist/backend/internal/domain/shared"
	"github.com/relist/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// getSellerID parses the seller ID from the :id route parameter
func getSellerID(c *gin.Context) (uuid.UUID, error) {
	sellerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.New("seller ID must be a valid UUID")
	}
	return sellerID, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response for operations that continue
// asynchronously.
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	statusCode := dto.GetHTTPStatus(code)
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// BadGateway sends a 502 bad gateway response for upstream failures
func (h *BaseHandler) BadGateway(c *gin.Context, code, message string) {
	h.Error(c, http.StatusBadGateway, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// TooManyRequests sends a 429 too many requests response
func (h *BaseHandler) TooManyRequests(c *gin.Context, message string) {
	h.Error(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// errorCodeFor maps domain sentinel errors to API error codes.
func errorCodeFor(err error) (code string, ok bool) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, catalog.ErrSellerNotFound),
		errors.Is(err, catalog.ErrRateNotFound):
		return dto.ErrCodeNotFound, true
	case errors.Is(err, catalog.ErrMissingRateFields),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, pricing.ErrRateOverflow),
		errors.Is(err, pricing.ErrNoFreightTiers):
		return dto.ErrCodeInvalidState, true
	case errors.Is(err, syncapp.ErrPageCeiling):
		return dto.ErrCodeBusinessRule, true
	case errors.Is(err, marketplace.ErrTokenRefreshFailed):
		return dto.ErrCodeMarketplaceAuth, true
	case errors.Is(err, marketplace.ErrPlatformUnavailable),
		errors.Is(err, marketplace.ErrPlatformRequestFailed),
		errors.Is(err, marketplace.ErrPlatformInvalidResponse):
		return dto.ErrCodePlatformUnavailable, true
	case errors.Is(err, scraping.ErrUnsupportedSupplier):
		return dto.ErrCodeInvalidInput, true
	case errors.Is(err, scraping.ErrNavigationFailed),
		errors.Is(err, scraping.ErrPriceNotFound):
		return dto.ErrCodeScrapeFailed, true
	}
	return "", false
}

// HandleError converts domain errors to HTTP responses. Sentinel errors from
// the catalog, scraping, marketplace, pricing, and sync packages map to their
// API error codes; wrapped errors are unwrapped via errors.Is/As.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	if code, ok := errorCodeFor(err); ok {
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, err.Error(), requestID))
		return
	}

	// Structured domain errors carry their own code
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	// Default to internal error for unknown error types
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
