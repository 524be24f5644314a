package scraper

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
)

// NewDrishtiSource creates the Drishti IAS daily news analysis source.
// The page URL is the configured base URL with the date key appended.
func NewDrishtiSource(config *common.ScraperConfig, client *Client, renderer *Renderer, logger arbor.ILogger) *HTMLSource {
	return NewHTMLSource("drishti", config.DrishtiBaseURL, config.MinParagraphLen, client, renderer, logger)
}
