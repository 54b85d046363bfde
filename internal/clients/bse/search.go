package bse

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The site search returns HTML, not a structured payload, so the scrip code
// is scraped with an ordered list of extraction strategies. Each strategy is
// independent and returns the first code it can find; the list is walked in
// priority order and stops at the first success.
//
// Vendor policy: BSE equity scrip codes observed in search results fall in
// the 500000-999999 range. The fallback strategy uses that range as a
// plausibility filter to avoid grabbing unrelated six-digit numbers.
const (
	scripCodeRangeMin = 500000
	scripCodeRangeMax = 999999
)

var (
	scripCodePattern = regexp.MustCompile(`\b(\d{6})\b`)
	stockHrefPattern = regexp.MustCompile(`/stock-share-price/[^"']*/(\d{6})/?`)
	isinPattern      = regexp.MustCompile(`INE[0-9A-Z]{9}`)
)

// extractStrategy is one way of pulling a scrip code out of the search HTML.
type extractStrategy struct {
	name    string
	extract func(html string, doc *goquery.Document) (string, bool)
}

// extractStrategies is the priority-ordered strategy list.
var extractStrategies = []extractStrategy{
	{name: "stock-url", extract: extractFromStockURL},
	{name: "adjacent-isin", extract: extractAdjacentToISIN},
	{name: "numeric-range", extract: extractByNumericRange},
}

// SearchScripCode looks up a symbol on the vendor's site search and scrapes
// the scrip code out of the result markup. Returns ("", nil) when the page
// parses but contains no recognizable code; errors are transport-level only.
func (c *Client) SearchScripCode(ctx context.Context, symbol string) (string, error) {
	searchURL := fmt.Sprintf("%s/SiteSearch/Search?Text=%s", c.siteBaseURL, url.QueryEscape(symbol))

	body, err := c.get(ctx, searchURL)
	if err != nil {
		return "", fmt.Errorf("symbol search failed for %q: %w", symbol, err)
	}

	html := string(body)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparsable markup still leaves the regex strategies usable.
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Search markup unparsable as HTML")
		doc = nil
	}

	for _, strategy := range extractStrategies {
		if code, ok := strategy.extract(html, doc); ok {
			c.log.Debug().
				Str("symbol", symbol).
				Str("scripcode", code).
				Str("strategy", strategy.name).
				Msg("Resolved scrip code from search")
			return code, nil
		}
	}

	c.log.Debug().Str("symbol", symbol).Msg("No scrip code found in search results")
	return "", nil
}

// extractFromStockURL pulls the scrip code out of a stock detail page link,
// e.g. /stock-share-price/reliance-industries-ltd/reliance/500325/.
func extractFromStockURL(html string, doc *goquery.Document) (string, bool) {
	if doc != nil {
		var code string
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if m := stockHrefPattern.FindStringSubmatch(href); m != nil {
				code = m[1]
				return false
			}
			return true
		})
		if code != "" {
			return code, true
		}
	}

	// Anchor walk found nothing; the link may be assembled by script.
	if m := stockHrefPattern.FindStringSubmatch(html); m != nil {
		return m[1], true
	}
	return "", false
}

// extractAdjacentToISIN finds a six-digit number within a short window of an
// ISIN. Search result rows list the scrip code and ISIN side by side.
func extractAdjacentToISIN(html string, _ *goquery.Document) (string, bool) {
	const window = 120

	for _, loc := range isinPattern.FindAllStringIndex(html, -1) {
		start := loc[0] - window
		if start < 0 {
			start = 0
		}
		end := loc[1] + window
		if end > len(html) {
			end = len(html)
		}
		if m := scripCodePattern.FindStringSubmatch(html[start:end]); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// extractByNumericRange is the last-resort heuristic: take the first
// six-digit number in the page that falls inside the vendor's equity scrip
// code range.
func extractByNumericRange(html string, _ *goquery.Document) (string, bool) {
	for _, m := range scripCodePattern.FindAllStringSubmatch(html, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= scripCodeRangeMin && n <= scripCodeRangeMax {
			return m[1], true
		}
	}
	return "", false
}
