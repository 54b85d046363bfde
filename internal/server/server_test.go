package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devashishj/folio/internal/aggregator"
	"github.com/devashishj/folio/internal/cachestore"
	"github.com/devashishj/folio/internal/clients/bse"
	"github.com/devashishj/folio/internal/portfolio"
	"github.com/devashishj/folio/internal/resolver"
)

type stubMarket struct {
	quotes map[string]bse.PriceQuote
	funds  map[string]bse.FundamentalsRecord
}

func (s *stubMarket) FetchQuotes(_ context.Context, codes []string) map[string]bse.PriceQuote {
	out := make(map[string]bse.PriceQuote)
	for _, code := range codes {
		if q, ok := s.quotes[code]; ok {
			out[code] = q
		}
	}
	return out
}

func (s *stubMarket) FetchFundamentalsMany(_ context.Context, codes []string) map[string]bse.FundamentalsRecord {
	out := make(map[string]bse.FundamentalsRecord)
	for _, code := range codes {
		if r, ok := s.funds[code]; ok {
			out[code] = r
		}
	}
	return out
}

type stubSearcher struct{ codes map[string]string }

func (s *stubSearcher) SearchScripCode(_ context.Context, symbol string) (string, error) {
	return s.codes[symbol], nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()

	holdings := portfolio.NewStoreFromHoldings([]portfolio.Holding{
		{Symbol: "RELIANCE", Name: "Reliance Industries", Sector: "Energy", PurchasePrice: 100, Quantity: 10, Investment: 1000},
		{Symbol: "TCS", Name: "Tata Consultancy Services", Sector: "IT", PurchasePrice: 3200, Quantity: 10, Investment: 32000},
	}, log)

	agg := aggregator.New(aggregator.Config{
		Holdings: holdings,
		Resolver: resolver.New(&stubSearcher{codes: map[string]string{
			"RELIANCE": "500325", "TCS": "532540",
		}}, log),
		Client: &stubMarket{
			quotes: map[string]bse.PriceQuote{
				"500325": {ScripCode: "500325", CurrentPrice: 120},
				"532540": {ScripCode: "532540", CurrentPrice: 4000},
			},
			funds: map[string]bse.FundamentalsRecord{},
		},
		Scrips: cachestore.NewScripStore(filepath.Join(dir, cachestore.FileScripCodes), log),
		Prices: cachestore.NewTTLStore[bse.PriceQuote](filepath.Join(dir, cachestore.FilePrices), cachestore.TTLPrice, log),
		Funds:  cachestore.NewTTLStore[bse.FundamentalsRecord](filepath.Join(dir, cachestore.FileFundamentals), cachestore.TTLFundamentals, log),
		Log:    log,
	})

	return New(Config{Port: 0, Log: log, Aggregator: agg})
}

func doRequest(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleGetPortfolio(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, "/api/portfolio")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count    int                         `json:"count"`
		Holdings []portfolio.EnrichedHolding `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Equal(t, 2, body.Count)
	assert.Equal(t, "RELIANCE", body.Holdings[0].Symbol)
	assert.Equal(t, 1200.0, body.Holdings[0].Realtime.PresentValue)
	assert.Equal(t, "+20.00%", body.Holdings[0].Realtime.GainLossPercent)
	assert.Equal(t, "TCS", body.Holdings[1].Symbol)
	assert.Equal(t, 40000.0, body.Holdings[1].Realtime.PresentValue)
}

func TestHandleGetHolding(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, "/api/portfolio/TCS")
	require.Equal(t, http.StatusOK, rec.Code)

	var enriched portfolio.EnrichedHolding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enriched))
	assert.Equal(t, "TCS", enriched.Symbol)
	assert.Equal(t, 4000.0, enriched.Realtime.CurrentPrice)
}

func TestHandleGetHoldingNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, "/api/portfolio/WIPRO")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetSummary(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, "/api/portfolio/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sectors           []SectorSummary `json:"sectors"`
		TotalInvestment   float64         `json:"totalInvestment"`
		TotalPresentValue float64         `json:"totalPresentValue"`
		TotalGainLoss     float64         `json:"totalGainLoss"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Sectors, 2)
	assert.Equal(t, 33000.0, body.TotalInvestment)
	assert.Equal(t, 41200.0, body.TotalPresentValue)
	assert.Equal(t, 8200.0, body.TotalGainLoss)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		rec := doRequest(t, srv, path)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	// Generated when absent
	rec := doRequest(t, srv, "/health")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// Echoed when present
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "test-id-123")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, "test-id-123", rec.Header().Get("X-Request-ID"))
}
