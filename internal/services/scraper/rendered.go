package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
)

// Renderer fetches pages through headless Chrome for sources that build
// their article body with JavaScript. Each fetch runs in a fresh browser
// context so a hung page cannot poison later fetches.
type Renderer struct {
	userAgent string
	wait      time.Duration
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewRenderer creates a headless browser renderer from scraper configuration.
func NewRenderer(config *common.ScraperConfig, logger arbor.ILogger) *Renderer {
	wait := config.RenderWait
	if wait <= 0 {
		wait = 3 * time.Second
	}

	return &Renderer{
		userAgent: config.UserAgent,
		wait:      wait,
		timeout:   config.RequestTimeout,
		logger:    logger,
	}
}

// FetchHTML navigates to a URL, waits for scripts to settle and parses the
// rendered document.
func (r *Renderer) FetchHTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(r.userAgent),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)

	allocatorCtx, cancelAllocator := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAllocator()

	browserCtx, cancelBrowser := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug().Msg(fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	pageCtx, cancelPage := context.WithTimeout(browserCtx, r.timeout+r.wait)
	defer cancelPage()

	var html string
	err := chromedp.Run(pageCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.Navigate(rawURL),
		chromedp.Sleep(r.wait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("rendered fetch of %s failed: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML from %s: %w", rawURL, err)
	}

	return doc, nil
}
