package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	// ErrPlatformUnavailable indicates the remote API could not be reached;
	// retryable
	ErrPlatformUnavailable = errors.New("marketplace: platform temporarily unavailable")
	// ErrPlatformRequestFailed indicates a non-auth API failure; fatal for
	// the current page
	ErrPlatformRequestFailed = errors.New("marketplace: platform request failed")
	// ErrPlatformInvalidResponse indicates an unparseable response
	ErrPlatformInvalidResponse = errors.New("marketplace: invalid platform response")
	// ErrTokenRefreshFailed indicates the refresh call itself failed
	ErrTokenRefreshFailed = errors.New("marketplace: token refresh failed")
)

// AuthError is an authorization failure reported by the platform. It carries
// the platform error code so callers can distinguish expiry (refreshable)
// from revocation.
type AuthError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("marketplace: auth error %s: %s", e.Code, e.Message)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ---------------------------------------------------------------------------
// Remote Listing Types
// ---------------------------------------------------------------------------

// RemoteListing is one listing record as reported by the marketplace.
type RemoteListing struct {
	ItemID       string
	SKU          string
	Title        string
	Price        decimal.Decimal
	Quantity     int
	QuantitySold int
	ConditionID  int
	// ListingStatus is the raw platform status code (e.g. "Active", "Ended")
	ListingStatus string
	ViewItemURL   string
	WatchCount    int
	StartTime     time.Time
}

// AvailableStock derives sellable stock from the platform quantity fields.
func (l *RemoteListing) AvailableStock() int {
	stock := l.Quantity - l.QuantitySold
	if stock < 0 {
		return 0
	}
	return stock
}

// ListingsRequest identifies one page of a seller's listings.
type ListingsRequest struct {
	SellerID    string
	AccessToken string
	Page        int
	PerPage     int
}

// ListingsPage is the result of one paged listings fetch.
type ListingsPage struct {
	Items        []RemoteListing
	HasMore      bool
	TotalPages   int
	TotalEntries int
	Page         int
}

// TokenPair is a refreshed credential pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Revision is a price/stock update pushed to the platform for one listing.
type Revision struct {
	ItemID string
	SKU    string
	Price  decimal.Decimal
	Stock  int
}

// ---------------------------------------------------------------------------
// Platform Capability
// ---------------------------------------------------------------------------

// Platform is the typed RPC capability onto the marketplace API. The
// concrete transport lives in infrastructure.
type Platform interface {
	// FetchSellerListings returns one page of the seller's active listings.
	FetchSellerListings(ctx context.Context, req ListingsRequest) (*ListingsPage, error)

	// RefreshAccessToken exchanges the refresh token for a new pair.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	// ReviseListing pushes a single price/stock update.
	ReviseListing(ctx context.Context, accessToken string, rev Revision) error

	// ReviseListings pushes a batch of price/stock updates.
	ReviseListings(ctx context.Context, accessToken string, revs []Revision) error
}
