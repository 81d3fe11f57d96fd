package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SellerStatus represents the onboarding status of a seller account.
type SellerStatus string

const (
	SellerStatusActive   SellerStatus = "active"
	SellerStatusDisabled SellerStatus = "disabled"
)

// Seller is a marketplace seller account. It is owned by the onboarding
// flow; the sync pipeline only reads it and persists refreshed tokens.
type Seller struct {
	ID                  uuid.UUID
	MarketplaceSellerID string
	AccessToken         string
	RefreshToken        string
	Status              SellerStatus
	TokenRefreshedAt    *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SellerRepository is the persistence contract for sellers.
type SellerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Seller, error)

	// UpdateTokens durably persists a refreshed token pair. Callers must not
	// retry a failed marketplace call with the new token until this has
	// succeeded.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, refreshedAt time.Time) error
}
