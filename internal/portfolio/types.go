// Package portfolio holds the static portfolio data model and the holdings
// store. Holdings are loaded once at startup and never mutated; enrichment
// happens per request on copies.
package portfolio

import "time"

// Price source labels for the realtime block.
const (
	SourceBSE      = "bse"
	SourceScreener = "screener"
	SourceStatic   = "static"
)

// Holding is one static portfolio position as configured in holdings.json.
type Holding struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	PurchasePrice    float64 `json:"purchasePrice"`
	Quantity         float64 `json:"quantity"`
	Investment       float64 `json:"investment"`
	PortfolioPercent float64 `json:"portfolioPercent"`
}

// Realtime is the mutable market-data block of an enriched holding.
type Realtime struct {
	CurrentPrice    float64   `json:"currentPrice"`
	PresentValue    float64   `json:"presentValue"`
	GainLoss        float64   `json:"gainLoss"`
	GainLossPercent string    `json:"gainLossPercent"`
	MarketCap       *float64  `json:"marketCap,omitempty"`
	LastUpdated     time.Time `json:"lastUpdated"`
	PriceSource     string    `json:"priceSource"`
}

// Fundamentals holds valuation ratios for a holding. All numerics are
// nullable because the vendor frequently omits individual fields.
type Fundamentals struct {
	PE       *float64 `json:"pe,omitempty"`
	PB       *float64 `json:"pb,omitempty"`
	EPS      *float64 `json:"eps,omitempty"`
	ROE      *float64 `json:"roe,omitempty"`
	OPM      *float64 `json:"opm,omitempty"`
	NPM      *float64 `json:"npm,omitempty"`
	Sector   string   `json:"sector,omitempty"`
	Industry string   `json:"industry,omitempty"`
}

// EnrichedHolding is a Holding plus its realtime and fundamentals blocks.
// Instances are created per aggregation request and discarded after the
// response is written.
type EnrichedHolding struct {
	Holding
	Realtime     Realtime     `json:"realtime"`
	Fundamentals Fundamentals `json:"fundamentals"`
}

// NewEnriched returns an enriched holding seeded with static baseline values:
// the purchase price as current price and the original investment as present
// value, so holdings that never resolve still render sensibly.
func NewEnriched(h Holding) EnrichedHolding {
	return EnrichedHolding{
		Holding: h,
		Realtime: Realtime{
			CurrentPrice:    h.PurchasePrice,
			PresentValue:    h.Investment,
			GainLoss:        0,
			GainLossPercent: "+0.00%",
			PriceSource:     SourceStatic,
		},
		Fundamentals: Fundamentals{
			Sector: h.Sector,
		},
	}
}
