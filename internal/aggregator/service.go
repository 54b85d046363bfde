// Package aggregator combines the static holdings with resolved scrip codes
// and cached or freshly fetched market data into enriched holding records.
// All cache stores and clients are injected, so the whole flow runs against
// in-memory fakes in tests.
package aggregator

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/devashishj/folio/internal/clients/bse"
	"github.com/devashishj/folio/internal/portfolio"
	"github.com/devashishj/folio/internal/utils"
)

// Service is the portfolio aggregator.
type Service struct {
	holdings *portfolio.Store
	resolver SymbolResolver
	client   MarketClient
	scrips   ScripStore
	prices   PriceStore
	funds    FundamentalsStore
	log      zerolog.Logger
}

// Config collects the aggregator's dependencies.
type Config struct {
	Holdings *portfolio.Store
	Resolver SymbolResolver
	Client   MarketClient
	Scrips   ScripStore
	Prices   PriceStore
	Funds    FundamentalsStore
	Log      zerolog.Logger
}

// New creates the aggregator service.
func New(cfg Config) *Service {
	return &Service{
		holdings: cfg.Holdings,
		resolver: cfg.Resolver,
		client:   cfg.Client,
		scrips:   cfg.Scrips,
		prices:   cfg.Prices,
		funds:    cfg.Funds,
		log:      cfg.Log.With().Str("component", "aggregator").Logger(),
	}
}

// AggregateAll enriches every holding with current prices and fundamentals,
// cache-first. Holdings whose symbol does not resolve, or for which no data
// is available, keep their static baseline values. Output preserves the
// configuration order of the holdings.
func (s *Service) AggregateAll(ctx context.Context) []portfolio.EnrichedHolding {
	holdings := s.holdings.Holdings()

	// Resolve all distinct symbols, cache-first, and persist any newly
	// discovered mappings in one batched write.
	cachedScrips := s.scrips.Load()
	res := s.resolver.ResolveAll(ctx, s.holdings.Symbols(), cachedScrips)
	if len(res.Discovered) > 0 {
		for symbol, code := range res.Discovered {
			cachedScrips[symbol] = code
		}
		s.scrips.Save(cachedScrips)
	}

	codes := distinctCodes(holdings, res.Resolved)

	funds := s.refreshFundamentals(ctx, codes)
	prices := s.refreshPrices(ctx, codes)

	enriched := make([]portfolio.EnrichedHolding, 0, len(holdings))
	for _, h := range holdings {
		e := portfolio.NewEnriched(h)
		if code, ok := res.Resolved[h.Symbol]; ok {
			s.enrich(&e, prices, funds, code)
		}
		enriched = append(enriched, e)
	}

	return enriched
}

// AggregateOne enriches a single holding by symbol. Returns false when the
// symbol is not part of the portfolio.
func (s *Service) AggregateOne(ctx context.Context, symbol string) (portfolio.EnrichedHolding, bool) {
	h, ok := s.holdings.Get(symbol)
	if !ok {
		return portfolio.EnrichedHolding{}, false
	}

	e := portfolio.NewEnriched(h)

	cachedScrips := s.scrips.Load()
	code, discovered, ok := s.resolver.ResolveOne(ctx, symbol, cachedScrips)
	if !ok {
		// Unresolvable is a normal outcome; serve the static baseline.
		return e, true
	}
	if discovered {
		cachedScrips[symbol] = code
		s.scrips.Save(cachedScrips)
	}

	funds := s.refreshFundamentals(ctx, []string{code})
	prices := s.refreshPrices(ctx, []string{code})
	s.enrich(&e, prices, funds, code)

	return e, true
}

// refreshPrices returns the quote mapping for the given codes: cached entries
// plus a batched fetch of whatever the short-TTL store is missing. The merged
// whole is persisted only when something new was fetched.
func (s *Service) refreshPrices(ctx context.Context, codes []string) map[string]bse.PriceQuote {
	cached := s.prices.Load()

	missing := missingKeys(codes, cached)
	if len(missing) == 0 {
		return cached
	}

	fetched := s.client.FetchQuotes(ctx, missing)
	for code, quote := range fetched {
		cached[code] = quote
	}
	if len(fetched) > 0 {
		s.prices.Save(cached)
	}

	s.log.Debug().
		Int("cached", len(cached)-len(fetched)).
		Int("fetched", len(fetched)).
		Int("missing", len(missing)-len(fetched)).
		Msg("Price refresh complete")

	return cached
}

// refreshFundamentals mirrors refreshPrices against the long-TTL store.
func (s *Service) refreshFundamentals(ctx context.Context, codes []string) map[string]bse.FundamentalsRecord {
	cached := s.funds.Load()

	missing := missingKeys(codes, cached)
	if len(missing) == 0 {
		return cached
	}

	fetched := s.client.FetchFundamentalsMany(ctx, missing)
	for code, rec := range fetched {
		cached[code] = rec
	}
	if len(fetched) > 0 {
		s.funds.Save(cached)
	}

	return cached
}

// enrich overlays price and fundamentals data onto an enriched holding and
// recomputes the derived portfolio metrics. Fields absent from the fetched
// data keep their static baseline values.
func (s *Service) enrich(e *portfolio.EnrichedHolding, prices map[string]bse.PriceQuote, funds map[string]bse.FundamentalsRecord, code string) {
	if quote, ok := prices[code]; ok {
		price := decimal.NewFromFloat(quote.CurrentPrice)
		quantity := decimal.NewFromFloat(e.Quantity)
		investment := decimal.NewFromFloat(e.Investment)

		presentValue := price.Mul(quantity).Round(2)
		gainLoss := presentValue.Sub(investment).Round(2)

		e.Realtime.CurrentPrice = quote.CurrentPrice
		e.Realtime.PresentValue = presentValue.InexactFloat64()
		e.Realtime.GainLoss = gainLoss.InexactFloat64()
		e.Realtime.MarketCap = quote.MarketCap
		e.Realtime.LastUpdated = quote.FetchedAt
		e.Realtime.PriceSource = portfolio.SourceBSE

		if investment.IsZero() {
			e.Realtime.GainLossPercent = "0.00%"
		} else {
			pct := gainLoss.Div(investment).Mul(decimal.NewFromInt(100))
			e.Realtime.GainLossPercent = utils.FormatSignedPercent(pct)
		}
	}

	if rec, ok := funds[code]; ok {
		overlayFundamentals(&e.Fundamentals, rec)
	}
}

// overlayFundamentals copies only the fields present in the fetched record,
// leaving absent fields at their baseline values.
func overlayFundamentals(dst *portfolio.Fundamentals, src bse.FundamentalsRecord) {
	if src.PE != nil {
		dst.PE = src.PE
	}
	if src.PB != nil {
		dst.PB = src.PB
	}
	if src.EPS != nil {
		dst.EPS = src.EPS
	}
	if src.ROE != nil {
		dst.ROE = src.ROE
	}
	if src.OPM != nil {
		dst.OPM = src.OPM
	}
	if src.NPM != nil {
		dst.NPM = src.NPM
	}
	if src.Sector != "" {
		dst.Sector = src.Sector
	}
	if src.Industry != "" {
		dst.Industry = src.Industry
	}
}

// distinctCodes lists the resolved scrip codes in holding order, once each.
func distinctCodes(holdings []portfolio.Holding, resolved map[string]string) []string {
	seen := make(map[string]bool, len(resolved))
	var codes []string
	for _, h := range holdings {
		code, ok := resolved[h.Symbol]
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// missingKeys lists the codes not present in the cached mapping.
func missingKeys[T any](codes []string, cached map[string]T) []string {
	var missing []string
	for _, code := range codes {
		if _, ok := cached[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}
