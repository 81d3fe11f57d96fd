package marketplace

import "github.com/relist/backend/internal/domain/catalog"

// Platform condition identifiers.
const (
	ConditionIDNew            = 1000
	ConditionIDNewOther       = 1500
	ConditionIDRefurbished    = 2000
	ConditionIDSellerRefurb   = 2500
	ConditionIDUsedExcellent  = 3000
	ConditionIDUsedGood       = 4000
	ConditionIDUsedAcceptable = 5000
)

// MapCondition maps a platform condition identifier to the internal enum.
// Unknown identifiers code conservatively as used.
func MapCondition(conditionID int) catalog.ItemCondition {
	switch conditionID {
	case ConditionIDNew, ConditionIDNewOther:
		return catalog.ItemConditionNew
	case ConditionIDRefurbished, ConditionIDSellerRefurb:
		return catalog.ItemConditionRefurbished
	default:
		return catalog.ItemConditionUsed
	}
}

// MapListingStatus maps the raw platform listing status to the internal
// enum. Anything that is not affirmatively active is treated as ended.
func MapListingStatus(status string) catalog.ItemStatus {
	switch status {
	case "Active":
		return catalog.ItemStatusActive
	default:
		return catalog.ItemStatusEnded
	}
}
