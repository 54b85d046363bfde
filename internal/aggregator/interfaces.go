package aggregator

import (
	"context"

	"github.com/devashishj/folio/internal/clients/bse"
	"github.com/devashishj/folio/internal/resolver"
)

// ScripStore is the permanent symbol-to-scripcode cache.
type ScripStore interface {
	Load() map[string]string
	Save(map[string]string)
}

// PriceStore is the short-TTL quote cache.
type PriceStore interface {
	Load() map[string]bse.PriceQuote
	Save(map[string]bse.PriceQuote)
}

// FundamentalsStore is the long-TTL ratios cache.
type FundamentalsStore interface {
	Load() map[string]bse.FundamentalsRecord
	Save(map[string]bse.FundamentalsRecord)
}

// MarketClient fetches quotes and fundamentals from the vendor.
type MarketClient interface {
	FetchQuotes(ctx context.Context, scripCodes []string) map[string]bse.PriceQuote
	FetchFundamentalsMany(ctx context.Context, scripCodes []string) map[string]bse.FundamentalsRecord
}

// SymbolResolver resolves ticker symbols to scrip codes.
type SymbolResolver interface {
	ResolveAll(ctx context.Context, symbols []string, cached map[string]string) resolver.Result
	ResolveOne(ctx context.Context, symbol string, cached map[string]string) (code string, discovered bool, ok bool)
}
