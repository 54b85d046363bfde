package portfolio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Store provides read-only access to the static holdings list.
type Store struct {
	holdings []Holding
	log      zerolog.Logger
}

// NewStore loads the holdings document from disk. The document is a JSON
// array of Holding objects and is read exactly once; the store never watches
// or reloads the file.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings file: %w", err)
	}

	var holdings []Holding
	if err := json.Unmarshal(data, &holdings); err != nil {
		return nil, fmt.Errorf("failed to parse holdings file: %w", err)
	}

	if len(holdings) == 0 {
		return nil, fmt.Errorf("holdings file %s contains no holdings", path)
	}

	log.Info().Int("count", len(holdings)).Str("path", path).Msg("Loaded static holdings")

	return &Store{
		holdings: holdings,
		log:      log.With().Str("component", "portfolio").Logger(),
	}, nil
}

// NewStoreFromHoldings builds a store from an in-memory list. Used in tests
// and by callers that embed their holdings.
func NewStoreFromHoldings(holdings []Holding, log zerolog.Logger) *Store {
	return &Store{
		holdings: holdings,
		log:      log.With().Str("component", "portfolio").Logger(),
	}
}

// Holdings returns a copy of the static holdings in configuration order.
func (s *Store) Holdings() []Holding {
	out := make([]Holding, len(s.holdings))
	copy(out, s.holdings)
	return out
}

// Symbols returns the distinct holding symbols in first-seen order.
func (s *Store) Symbols() []string {
	seen := make(map[string]bool, len(s.holdings))
	var symbols []string
	for _, h := range s.holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	return symbols
}

// Get returns the holding for a symbol, or false when the symbol is not part
// of the portfolio.
func (s *Store) Get(symbol string) (Holding, bool) {
	for _, h := range s.holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}
