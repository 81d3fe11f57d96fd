package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/relist/backend/internal/domain/scraping"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultWaitTimeout       = 10 * time.Second
)

// NavigatorConfig contains configuration for the chromedp navigator.
type NavigatorConfig struct {
	// NavigationTimeout bounds a single page load
	NavigationTimeout time.Duration
	// ProxyURL routes browser traffic through an egress proxy (optional)
	ProxyURL string
	// RemoteURL points at a remote Chrome instance instead of launching one
	RemoteURL string
	// Headless mode (default: true)
	Headless bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// BlockResources drops image/font/stylesheet/media requests to keep
	// supplier page loads cheap (default: true)
	BlockResources bool
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpNavigator implements scraping.Navigator over the Chrome DevTools
// Protocol. One navigator owns one browser process; every Navigate call
// opens a tab in that shared session.
type ChromedpNavigator struct {
	config      *NavigatorConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpNavigator creates a navigator and its Chrome allocator.
func NewChromedpNavigator(config *NavigatorConfig) (*ChromedpNavigator, error) {
	if config == nil {
		config = &NavigatorConfig{}
	}
	if config.NavigationTimeout == 0 {
		config.NavigationTimeout = defaultNavigationTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &ChromedpNavigator{config: config, logger: logger}
	n.initAllocator()
	return n, nil
}

// initAllocator initializes the Chrome allocator.
func (n *ChromedpNavigator) initAllocator() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", n.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
	)

	if n.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if n.config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(n.config.ProxyURL))
	}

	if n.config.RemoteURL != "" {
		n.allocCtx, n.allocCancel = chromedp.NewRemoteAllocator(context.Background(), n.config.RemoteURL)
	} else {
		n.allocCtx, n.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
}

// Navigate opens a tab in the shared session and loads the URL. Failures are
// reported as scraping.ErrNavigationFailed, which the engine treats as
// retryable.
func (n *ChromedpNavigator) Navigate(ctx context.Context, url string) (scraping.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(n.allocCtx)

	if n.config.BlockResources {
		n.interceptRequests(tabCtx)
	}

	loadCtx, loadCancel := context.WithTimeout(tabCtx, n.config.NavigationTimeout)
	defer loadCancel()

	// honor caller cancellation while the load is in flight
	stop := context.AfterFunc(ctx, loadCancel)
	defer stop()

	actions := []chromedp.Action{}
	if n.config.BlockResources {
		actions = append(actions, fetch.Enable())
	}
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)

	if err := chromedp.Run(loadCtx, actions...); err != nil {
		tabCancel()
		return nil, fmt.Errorf("%w: %s: %v", scraping.ErrNavigationFailed, url, err)
	}

	return &chromedpPage{ctx: tabCtx, cancel: tabCancel}, nil
}

// interceptRequests fails non-essential resource requests at the protocol
// level so supplier pages load without images, fonts and styles.
func (n *ChromedpNavigator) interceptRequests(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			switch paused.ResourceType {
			case network.ResourceTypeImage,
				network.ResourceTypeFont,
				network.ResourceTypeStylesheet,
				network.ResourceTypeMedia:
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			default:
				_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
			}
		}()
	})
}

// Close shuts down the browser process.
func (n *ChromedpNavigator) Close() error {
	if n.allocCancel != nil {
		n.allocCancel()
	}
	return nil
}

// ---------------------------------------------------------------------------
// chromedpPage
// ---------------------------------------------------------------------------

// chromedpPage is a loaded tab.
type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Locate returns the text of the first element matching the selector.
// Absence of the element is reported via ok, not as an error.
func (p *chromedpPage) Locate(ctx context.Context, selector string) (string, bool, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(p.ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	); err != nil {
		return "", false, fmt.Errorf("%w: locate %q: %v", scraping.ErrNavigationFailed, selector, err)
	}
	if len(nodes) == 0 {
		return "", false, nil
	}

	var text string
	if err := chromedp.Run(p.ctx,
		chromedp.Text(selector, &text, chromedp.ByQuery),
	); err != nil {
		return "", false, fmt.Errorf("%w: read %q: %v", scraping.ErrNavigationFailed, selector, err)
	}
	return text, true, nil
}

// WaitFor blocks until the selector is ready or the timeout elapses.
func (p *chromedpPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	waitCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("%w: wait %q: %v", scraping.ErrNavigationFailed, selector, err)
	}
	return nil
}

// Close releases the tab.
func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}

// Ensure ChromedpNavigator implements the navigation capability
var _ scraping.Navigator = (*ChromedpNavigator)(nil)
