package marketplace

import (
	"fmt"
	"testing"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
)

func TestRemoteListing_AvailableStock(t *testing.T) {
	listing := RemoteListing{Quantity: 5, QuantitySold: 2}
	assert.Equal(t, 3, listing.AvailableStock())

	// oversold listings never report negative stock
	listing = RemoteListing{Quantity: 1, QuantitySold: 3}
	assert.Equal(t, 0, listing.AvailableStock())
}

func TestIsAuthError(t *testing.T) {
	authErr := &AuthError{Code: "932", Message: "Auth token is hard expired"}
	assert.True(t, IsAuthError(authErr))
	assert.True(t, IsAuthError(fmt.Errorf("fetch page 2: %w", authErr)))
	assert.False(t, IsAuthError(ErrPlatformRequestFailed))
	assert.False(t, IsAuthError(nil))
}

func TestMapCondition(t *testing.T) {
	assert.Equal(t, catalog.ItemConditionNew, MapCondition(ConditionIDNew))
	assert.Equal(t, catalog.ItemConditionNew, MapCondition(ConditionIDNewOther))
	assert.Equal(t, catalog.ItemConditionRefurbished, MapCondition(ConditionIDRefurbished))
	assert.Equal(t, catalog.ItemConditionUsed, MapCondition(ConditionIDUsedGood))
	assert.Equal(t, catalog.ItemConditionUsed, MapCondition(0))
}

func TestMapListingStatus(t *testing.T) {
	assert.Equal(t, catalog.ItemStatusActive, MapListingStatus("Active"))
	assert.Equal(t, catalog.ItemStatusEnded, MapListingStatus("Ended"))
	assert.Equal(t, catalog.ItemStatusEnded, MapListingStatus("Completed"))
	assert.Equal(t, catalog.ItemStatusEnded, MapListingStatus(""))
}
