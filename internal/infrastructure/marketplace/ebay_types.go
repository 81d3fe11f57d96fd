package marketplace

// Error codes the platform reports for expired or invalid auth tokens.
const (
	// ErrorCodeTokenHardExpired is returned when the token passed has
	// expired and must be refreshed
	ErrorCodeTokenHardExpired = "932"
	// ErrorCodeInvalidToken is returned when the token is malformed or
	// revoked
	ErrorCodeInvalidToken = "931"
)

// ackSuccess / ackFailure are the envelope acknowledgement values.
const (
	ackSuccess = "Success"
	ackWarning = "Warning"
	ackFailure = "Failure"
)

// ebayAPIError is one error entry in a response envelope.
type ebayAPIError struct {
	Code     string `json:"error_code"`
	Message  string `json:"long_message"`
	Severity string `json:"severity_code"`
}

// ebayEnvelope is the common response envelope.
type ebayEnvelope struct {
	Ack    string         `json:"ack"`
	Errors []ebayAPIError `json:"errors"`
}

// IsSuccess returns true when the call succeeded, warnings included.
func (e *ebayEnvelope) IsSuccess() bool {
	return e.Ack == ackSuccess || e.Ack == ackWarning
}

// firstError returns the first reported error entry, if any.
func (e *ebayEnvelope) firstError() *ebayAPIError {
	if len(e.Errors) == 0 {
		return nil
	}
	return &e.Errors[0]
}

// isAuthCode reports whether the code marks an authorization failure.
func isAuthCode(code string) bool {
	return code == ErrorCodeTokenHardExpired || code == ErrorCodeInvalidToken
}

// ebayListing is one listing record in a GetSellerList response.
type ebayListing struct {
	ItemID        string `json:"item_id"`
	SKU           string `json:"sku"`
	Title         string `json:"title"`
	CurrentPrice  string `json:"current_price"`
	Quantity      int    `json:"quantity"`
	QuantitySold  int    `json:"quantity_sold"`
	ConditionID   int    `json:"condition_id"`
	ListingStatus string `json:"listing_status"`
	ViewItemURL   string `json:"view_item_url"`
	WatchCount    int    `json:"watch_count"`
	StartTime     string `json:"start_time"`
}

// ebaySellerListResponse is the GetSellerList response payload.
type ebaySellerListResponse struct {
	ebayEnvelope
	Items          []ebayListing `json:"items"`
	HasMoreItems   bool          `json:"has_more_items"`
	PageNumber     int           `json:"page_number"`
	TotalPages     int           `json:"total_number_of_pages"`
	TotalEntries   int           `json:"total_number_of_entries"`
	EntriesPerPage int           `json:"entries_per_page"`
}

// ebayTokenResponse is the OAuth refresh response payload.
type ebayTokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ebayReviseResponse is the ReviseInventoryStatus response payload.
type ebayReviseResponse struct {
	ebayEnvelope
}

// ebayReviseItem is one revision entry in a ReviseInventoryStatus request.
type ebayReviseItem struct {
	ItemID   string `json:"item_id"`
	SKU      string `json:"sku,omitempty"`
	Price    string `json:"start_price"`
	Quantity int    `json:"quantity"`
}
