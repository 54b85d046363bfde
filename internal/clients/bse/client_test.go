package bse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client pointed at the given test server for both
// the API and site endpoints.
func newTestClient(server *httptest.Server) *Client {
	c := NewClient(5*time.Second, zerolog.Nop())
	c.apiBaseURL = server.URL
	c.siteBaseURL = server.URL
	c.sleep = func(time.Duration) {}
	return c
}

const quoteJSON = `{
	"CurrRate": {"LTP": "2456.70", "Chg": "+12.35", "PcChg": "0.51"},
	"Header": {"Open": "2440.00", "High": "2460.10", "Low": "2431.55", "PrevClose": "2444.35", "MktCapFull": "1662345.12", "FaceVal": "10"},
	"Cmpname": {"FullN": "Reliance Industries Ltd", "ShortN": "RELIANCE"}
}`

func TestFetchQuote(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		// The vendor rejects non-browser requests, so the client must
		// always identify as one.
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		assert.Equal(t, "https://www.bseindia.com/", r.Header.Get("Referer"))
		w.Write([]byte(quoteJSON))
	}))
	defer server.Close()

	client := newTestClient(server)
	quote, ok := client.FetchQuote(context.Background(), "500325")
	require.True(t, ok)

	assert.Equal(t, "/getScripHeaderData/w", gotPath)
	assert.Equal(t, "500325", quote.ScripCode)
	assert.Equal(t, "Reliance Industries Ltd", quote.CompanyName)
	assert.Equal(t, 2456.70, quote.CurrentPrice)
	require.NotNil(t, quote.Change)
	assert.Equal(t, 12.35, *quote.Change)
	require.NotNil(t, quote.MarketCap)
	assert.Equal(t, 1662345.12, *quote.MarketCap)
	assert.Equal(t, 10.0, quote.FaceValue)
}

func TestFetchQuotePlaceholderFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"CurrRate": {"LTP": "100.00", "Chg": "-", "PcChg": ""},
			"Header": {"Open": "-", "MktCapFull": "", "FaceVal": "-"},
			"Cmpname": {"ShortN": "TEST"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	quote, ok := client.FetchQuote(context.Background(), "500001")
	require.True(t, ok)

	// "-" and "" map to absent for optional fields, 0 for mandatory ones.
	assert.Nil(t, quote.Change)
	assert.Nil(t, quote.ChangePercent)
	assert.Nil(t, quote.Open)
	assert.Nil(t, quote.MarketCap)
	assert.Equal(t, 0.0, quote.FaceValue)
	assert.Equal(t, "TEST", quote.CompanyName)
}

func TestFetchQuoteMissingLTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"CurrRate": {"LTP": "-"}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, ok := client.FetchQuote(context.Background(), "500001")
	assert.False(t, ok)
}

func TestFetchQuoteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, ok := client.FetchQuote(context.Background(), "500325")
	assert.False(t, ok)
}

func TestFetchQuoteUnparsableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, ok := client.FetchQuote(context.Background(), "500325")
	assert.False(t, ok)
}

func TestFetchQuoteNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	client := newTestClient(server)
	_, ok := client.FetchQuote(context.Background(), "500325")
	assert.False(t, ok)
}

func TestFetchFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EQ", r.URL.Query().Get("quotetype"))
		assert.Equal(t, "500325", r.URL.Query().Get("scripcode"))
		w.Write([]byte(`{
			"PE": "28.4", "PB": "2.1", "EPS": "98.59", "ROE": "8.9",
			"OPM": "-", "NPM": "",
			"Sector": "Energy", "Industry": "Refineries"
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	rec, ok := client.FetchFundamentals(context.Background(), "500325")
	require.True(t, ok)

	require.NotNil(t, rec.PE)
	assert.Equal(t, 28.4, *rec.PE)
	require.NotNil(t, rec.EPS)
	assert.Equal(t, 98.59, *rec.EPS)
	assert.Nil(t, rec.OPM)
	assert.Nil(t, rec.NPM)
	assert.Equal(t, "Energy", rec.Sector)
	assert.Equal(t, "Refineries", rec.Industry)
}

func TestFetchFundamentalsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, ok := client.FetchFundamentals(context.Background(), "500325")
	assert.False(t, ok)
}
