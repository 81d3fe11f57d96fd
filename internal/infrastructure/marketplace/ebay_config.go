package marketplace

import (
	"errors"
	"fmt"
)

// Default endpoints and limits for the eBay adapter.
const (
	defaultAPIBaseURL     = "https://api.ebay.com/trading"
	defaultAuthBaseURL    = "https://api.ebay.com/identity/v1/oauth2"
	defaultTimeoutSecs    = 20
	defaultEntriesPerPage = 100
)

// EbayConfig holds eBay API credentials and endpoints.
type EbayConfig struct {
	// APIBaseURL is the Trading API endpoint
	APIBaseURL string
	// AuthBaseURL is the OAuth token endpoint
	AuthBaseURL string
	// ClientID / ClientSecret identify the application for token refresh
	ClientID     string
	ClientSecret string
	// SiteID selects the marketplace site (0 = US)
	SiteID int
	// TimeoutSeconds bounds each API call
	TimeoutSeconds int
	// EntriesPerPage is the default page size for listing pulls
	EntriesPerPage int
}

// Validate checks required configuration fields and applies defaults.
func (c *EbayConfig) Validate() error {
	if c == nil {
		return errors.New("ebay: config is nil")
	}
	if c.ClientID == "" {
		return fmt.Errorf("ebay: %w", errMissingField("client id"))
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("ebay: %w", errMissingField("client secret"))
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = defaultAuthBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSecs
	}
	if c.EntriesPerPage <= 0 {
		c.EntriesPerPage = defaultEntriesPerPage
	}
	return nil
}

func errMissingField(name string) error {
	return fmt.Errorf("missing required config field %s", name)
}
