// Package bse provides a client for the BSE market-data endpoints used by the
// dashboard: live quotes, fundamentals ratios and the site's symbol search.
// The API is unofficial; it serves every numeric as a string and rejects
// requests that do not look like they come from a browser.
package bse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/devashishj/folio/internal/utils"
)

const (
	defaultAPIBaseURL  = "https://api.bseindia.com/BseIndiaAPI/api"
	defaultSiteBaseURL = "https://www.bseindia.com"

	defaultTimeout = 30 * time.Second

	// Batch fetch tuning: the vendor tolerates short bursts but throttles
	// sustained traffic, so requests go out in fixed-size batches with a
	// fixed pause in between.
	batchSize  = 10
	batchDelay = time.Second
)

// PriceQuote is a parsed live quote for one scrip.
type PriceQuote struct {
	ScripCode     string    `json:"scripCode"`
	CompanyName   string    `json:"companyName"`
	CurrentPrice  float64   `json:"currentPrice"`
	Change        *float64  `json:"change,omitempty"`
	ChangePercent *float64  `json:"changePercent,omitempty"`
	Open          *float64  `json:"open,omitempty"`
	High          *float64  `json:"high,omitempty"`
	Low           *float64  `json:"low,omitempty"`
	PrevClose     *float64  `json:"prevClose,omitempty"`
	MarketCap     *float64  `json:"marketCap,omitempty"`
	FaceValue     float64   `json:"faceValue"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// FundamentalsRecord is a parsed set of valuation ratios for one scrip.
type FundamentalsRecord struct {
	ScripCode string   `json:"scripCode"`
	PE        *float64 `json:"pe,omitempty"`
	PB        *float64 `json:"pb,omitempty"`
	EPS       *float64 `json:"eps,omitempty"`
	ROE       *float64 `json:"roe,omitempty"`
	OPM       *float64 `json:"opm,omitempty"`
	NPM       *float64 `json:"npm,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	Industry  string   `json:"industry,omitempty"`
}

// Client is the BSE HTTP client.
type Client struct {
	apiBaseURL  string
	siteBaseURL string
	httpClient  *http.Client
	log         zerolog.Logger

	// Injected in tests to make batch pacing observable.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewClient creates a new BSE client.
func NewClient(timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiBaseURL:  defaultAPIBaseURL,
		siteBaseURL: defaultSiteBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:   log.With().Str("component", "bse").Logger(),
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// quoteResponse mirrors the vendor quote payload. Every numeric arrives as a
// string; parsing policy lives in internal/utils.
type quoteResponse struct {
	CurrRate struct {
		LTP   string `json:"LTP"`
		Chg   string `json:"Chg"`
		PcChg string `json:"PcChg"`
	} `json:"CurrRate"`
	Header struct {
		Open       string `json:"Open"`
		High       string `json:"High"`
		Low        string `json:"Low"`
		PrevClose  string `json:"PrevClose"`
		MktCapFull string `json:"MktCapFull"`
		FaceValue  string `json:"FaceVal"`
	} `json:"Header"`
	Cmpname struct {
		FullN  string `json:"FullN"`
		ShortN string `json:"ShortN"`
	} `json:"Cmpname"`
}

// FetchQuote retrieves the current quote for one scrip code. Any transport or
// parse failure is logged and reported as absent (nil, false); errors never
// cross this boundary.
func (c *Client) FetchQuote(ctx context.Context, scripCode string) (*PriceQuote, bool) {
	url := fmt.Sprintf("%s/getScripHeaderData/w?Debtflag=&scripcode=%s&seriesid=", c.apiBaseURL, scripCode)

	body, err := c.get(ctx, url)
	if err != nil {
		c.log.Warn().Err(err).Str("scripcode", scripCode).Msg("Quote fetch failed")
		return nil, false
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.log.Warn().Err(err).Str("scripcode", scripCode).Msg("Quote response unparsable")
		return nil, false
	}

	// A quote without a last traded price is useless to the aggregator.
	ltp := utils.ParseOptionalFloat(resp.CurrRate.LTP)
	if ltp == nil {
		c.log.Warn().Str("scripcode", scripCode).Msg("Quote response missing LTP")
		return nil, false
	}

	name := resp.Cmpname.FullN
	if name == "" {
		name = resp.Cmpname.ShortN
	}

	return &PriceQuote{
		ScripCode:     scripCode,
		CompanyName:   name,
		CurrentPrice:  *ltp,
		Change:        utils.ParseOptionalFloat(resp.CurrRate.Chg),
		ChangePercent: utils.ParseOptionalFloat(resp.CurrRate.PcChg),
		Open:          utils.ParseOptionalFloat(resp.Header.Open),
		High:          utils.ParseOptionalFloat(resp.Header.High),
		Low:           utils.ParseOptionalFloat(resp.Header.Low),
		PrevClose:     utils.ParseOptionalFloat(resp.Header.PrevClose),
		MarketCap:     utils.ParseOptionalFloat(resp.Header.MktCapFull),
		FaceValue:     utils.ParseMandatoryFloat(resp.Header.FaceValue),
		FetchedAt:     c.now(),
	}, true
}

// fundamentalsResponse mirrors the vendor ratios payload (flat string fields).
type fundamentalsResponse struct {
	PE       string `json:"PE"`
	PB       string `json:"PB"`
	EPS      string `json:"EPS"`
	ROE      string `json:"ROE"`
	OPM      string `json:"OPM"`
	NPM      string `json:"NPM"`
	Sector   string `json:"Sector"`
	Industry string `json:"Industry"`
}

// FetchFundamentals retrieves valuation ratios for one scrip code. Failures
// are logged and reported as absent, matching FetchQuote.
func (c *Client) FetchFundamentals(ctx context.Context, scripCode string) (*FundamentalsRecord, bool) {
	url := fmt.Sprintf("%s/ComHeadernew/w?quotetype=EQ&scripcode=%s", c.apiBaseURL, scripCode)

	body, err := c.get(ctx, url)
	if err != nil {
		c.log.Warn().Err(err).Str("scripcode", scripCode).Msg("Fundamentals fetch failed")
		return nil, false
	}

	var resp fundamentalsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.log.Warn().Err(err).Str("scripcode", scripCode).Msg("Fundamentals response unparsable")
		return nil, false
	}

	return &FundamentalsRecord{
		ScripCode: scripCode,
		PE:        utils.ParseOptionalFloat(resp.PE),
		PB:        utils.ParseOptionalFloat(resp.PB),
		EPS:       utils.ParseOptionalFloat(resp.EPS),
		ROE:       utils.ParseOptionalFloat(resp.ROE),
		OPM:       utils.ParseOptionalFloat(resp.OPM),
		NPM:       utils.ParseOptionalFloat(resp.NPM),
		Sector:    resp.Sector,
		Industry:  resp.Industry,
	}, true
}

// get issues a GET with the browser-like header set the vendor requires and
// returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// setBrowserHeaders applies the fixed header set the vendor expects. Requests
// without these are rejected with 403.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.bseindia.com/")
	req.Header.Set("Origin", "https://www.bseindia.com")
}
