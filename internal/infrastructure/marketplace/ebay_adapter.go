package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/relist/backend/internal/domain/marketplace"
)

const (
	// maxResponseSize limits the response body size to prevent memory
	// exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// maxRevisesPerCall is the platform limit on inventory revisions per
	// ReviseInventoryStatus call
	maxRevisesPerCall = 4
)

// EbayAdapter implements the marketplace.Platform capability against the
// eBay Trading and OAuth APIs.
type EbayAdapter struct {
	config     *EbayConfig
	httpClient *http.Client
}

// NewEbayAdapter creates an adapter with the given configuration.
func NewEbayAdapter(config *EbayConfig) (*EbayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EbayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Listing Operations
// ---------------------------------------------------------------------------

// FetchSellerListings pulls one page of the seller's listings.
func (a *EbayAdapter) FetchSellerListings(ctx context.Context, req marketplace.ListingsRequest) (*marketplace.ListingsPage, error) {
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = a.config.EntriesPerPage
	}

	body := map[string]any{
		"user_id":          req.SellerID,
		"page_number":      req.Page,
		"entries_per_page": perPage,
		"granularity":      "Fine",
		"site_id":          a.config.SiteID,
	}

	respBody, err := a.doRequest(ctx, "GetSellerList", req.AccessToken, body)
	if err != nil {
		return nil, err
	}

	var resp ebaySellerListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformInvalidResponse, err)
	}
	if err := a.checkEnvelope(&resp.ebayEnvelope); err != nil {
		return nil, err
	}

	page := &marketplace.ListingsPage{
		Items:        make([]marketplace.RemoteListing, 0, len(resp.Items)),
		HasMore:      resp.HasMoreItems,
		TotalPages:   resp.TotalPages,
		TotalEntries: resp.TotalEntries,
		Page:         resp.PageNumber,
	}
	for _, item := range resp.Items {
		page.Items = append(page.Items, convertListing(item))
	}
	return page, nil
}

// convertListing maps a wire listing to the domain type.
func convertListing(item ebayListing) marketplace.RemoteListing {
	price, err := decimal.NewFromString(item.CurrentPrice)
	if err != nil {
		price = decimal.Zero
	}
	listing := marketplace.RemoteListing{
		ItemID:        item.ItemID,
		SKU:           item.SKU,
		Title:         item.Title,
		Price:         price,
		Quantity:      item.Quantity,
		QuantitySold:  item.QuantitySold,
		ConditionID:   item.ConditionID,
		ListingStatus: item.ListingStatus,
		ViewItemURL:   item.ViewItemURL,
		WatchCount:    item.WatchCount,
	}
	if ts, err := time.Parse(time.RFC3339, item.StartTime); err == nil {
		listing.StartTime = ts
	}
	return listing
}

// ---------------------------------------------------------------------------
// Token Refresh
// ---------------------------------------------------------------------------

// RefreshAccessToken exchanges the refresh token for a new pair.
func (a *EbayAdapter) RefreshAccessToken(ctx context.Context, refreshToken string) (*marketplace.TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := strings.TrimSuffix(a.config.AuthBaseURL, "/") + "/token"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to create refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to read refresh response: %w", err)
	}

	var resp ebayTokenResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformInvalidResponse, err)
	}
	if httpResp.StatusCode >= 400 || resp.Error != "" {
		return nil, fmt.Errorf("%w: %s %s", marketplace.ErrTokenRefreshFailed, resp.Error, resp.ErrorDescription)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", marketplace.ErrPlatformInvalidResponse)
	}

	pair := &marketplace.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	// the platform may omit the refresh token when it is still valid
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

// ---------------------------------------------------------------------------
// Revisions
// ---------------------------------------------------------------------------

// ReviseListing pushes a single price/stock update.
func (a *EbayAdapter) ReviseListing(ctx context.Context, accessToken string, rev marketplace.Revision) error {
	return a.reviseBatch(ctx, accessToken, []marketplace.Revision{rev})
}

// ReviseListings pushes updates in platform-sized chunks. A chunk failure
// aborts the remainder: callers retry the whole batch.
func (a *EbayAdapter) ReviseListings(ctx context.Context, accessToken string, revs []marketplace.Revision) error {
	for start := 0; start < len(revs); start += maxRevisesPerCall {
		end := start + maxRevisesPerCall
		if end > len(revs) {
			end = len(revs)
		}
		if err := a.reviseBatch(ctx, accessToken, revs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (a *EbayAdapter) reviseBatch(ctx context.Context, accessToken string, revs []marketplace.Revision) error {
	items := make([]ebayReviseItem, 0, len(revs))
	for _, rev := range revs {
		items = append(items, ebayReviseItem{
			ItemID:   rev.ItemID,
			SKU:      rev.SKU,
			Price:    rev.Price.StringFixed(2),
			Quantity: rev.Stock,
		})
	}

	respBody, err := a.doRequest(ctx, "ReviseInventoryStatus", accessToken, map[string]any{
		"inventory_status": items,
		"site_id":          a.config.SiteID,
	})
	if err != nil {
		return err
	}

	var resp ebayReviseResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: %v", marketplace.ErrPlatformInvalidResponse, err)
	}
	return a.checkEnvelope(&resp.ebayEnvelope)
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs one Trading API call.
func (a *EbayAdapter) doRequest(ctx context.Context, callName, accessToken string, params map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(a.config.APIBaseURL, "/") + "/" + callName
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-API-CALL-NAME", callName)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrPlatformRequestFailed, resp.StatusCode)
	}
	return body, nil
}

// checkEnvelope converts a failed envelope into the typed error taxonomy:
// auth-coded failures become *marketplace.AuthError so the state machine can
// branch into its refresh-and-retry path.
func (a *EbayAdapter) checkEnvelope(env *ebayEnvelope) error {
	if env.IsSuccess() {
		return nil
	}
	if apiErr := env.firstError(); apiErr != nil {
		if isAuthCode(apiErr.Code) {
			return &marketplace.AuthError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return fmt.Errorf("%w: %s - %s", marketplace.ErrPlatformRequestFailed, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: ack=%s", marketplace.ErrPlatformRequestFailed, env.Ack)
}

// Ensure EbayAdapter implements the platform capability
var _ marketplace.Platform = (*EbayAdapter)(nil)
