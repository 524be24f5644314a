package scraper

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
)

// NewIndianExpressSource creates the Indian Express current affairs source.
// The page URL is the configured base URL with the date key appended.
func NewIndianExpressSource(config *common.ScraperConfig, client *Client, renderer *Renderer, logger arbor.ILogger) *HTMLSource {
	return NewHTMLSource("indianexpress", config.ExpressBaseURL, config.MinParagraphLen, client, renderer, logger)
}
