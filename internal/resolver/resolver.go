// Package resolver maps human-readable ticker symbols to vendor scrip codes.
// Resolution is cache-first against the permanent scrip store, with the
// vendor's site search as the network fallback. The resolver never persists
// by itself; newly discovered mappings are handed back to the caller so disk
// writes can be batched once per aggregation run.
package resolver

import (
	"context"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
)

var scripCodeSyntax = regexp.MustCompile(`^\d+$`)

// IsScripCode reports whether the symbol already is a vendor scrip code
// (an all-digit string). Such symbols pass through resolution untouched.
func IsScripCode(symbol string) bool {
	return scripCodeSyntax.MatchString(symbol)
}

// Searcher is the network fallback for unresolved symbols.
type Searcher interface {
	SearchScripCode(ctx context.Context, symbol string) (string, error)
}

// Resolver resolves symbols to scrip codes.
type Resolver struct {
	searcher Searcher
	log      zerolog.Logger
}

// New creates a resolver backed by the given network searcher.
func New(searcher Searcher, log zerolog.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		log:      log.With().Str("component", "resolver").Logger(),
	}
}

// Result holds the outcome of resolving a set of symbols.
type Result struct {
	// Resolved maps every successfully resolved symbol to its scrip code,
	// whether it came from the cache or the network.
	Resolved map[string]string
	// Discovered holds only the mappings found via network search this run;
	// the caller persists these in one batched write.
	Discovered map[string]string
	// Unresolved lists symbols that could not be resolved this run. They are
	// not cached as negative results; the next run retries them.
	Unresolved []string
}

// ResolveAll resolves all symbols concurrently. cached is the content of the
// permanent scrip store. A search failure for one symbol never aborts the
// others; the symbol is simply reported unresolved.
func (r *Resolver) ResolveAll(ctx context.Context, symbols []string, cached map[string]string) Result {
	result := Result{
		Resolved:   make(map[string]string, len(symbols)),
		Discovered: make(map[string]string),
	}

	type lookup struct {
		symbol string
		code   string
		found  bool
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		pending []lookup
	)

	for _, symbol := range symbols {
		// All-digit symbols are already scrip codes.
		if IsScripCode(symbol) {
			result.Resolved[symbol] = symbol
			continue
		}

		if code, ok := cached[symbol]; ok && code != "" {
			result.Resolved[symbol] = code
			continue
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			code, err := r.searcher.SearchScripCode(ctx, symbol)
			if err != nil {
				r.log.Warn().Err(err).Str("symbol", symbol).Msg("Symbol search failed")
				mu.Lock()
				pending = append(pending, lookup{symbol: symbol})
				mu.Unlock()
				return
			}

			mu.Lock()
			pending = append(pending, lookup{symbol: symbol, code: code, found: code != ""})
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()

	for _, l := range pending {
		if l.found {
			result.Resolved[l.symbol] = l.code
			result.Discovered[l.symbol] = l.code
		} else {
			result.Unresolved = append(result.Unresolved, l.symbol)
		}
	}

	if len(result.Discovered) > 0 || len(result.Unresolved) > 0 {
		r.log.Info().
			Int("resolved", len(result.Resolved)).
			Int("discovered", len(result.Discovered)).
			Int("unresolved", len(result.Unresolved)).
			Msg("Symbol resolution complete")
	}

	return result
}

// ResolveOne resolves a single symbol against the cached mapping, falling
// back to network search. Returns ("", false) when the symbol cannot be
// resolved; the discovered flag is true when the code came from the network.
func (r *Resolver) ResolveOne(ctx context.Context, symbol string, cached map[string]string) (code string, discovered bool, ok bool) {
	if IsScripCode(symbol) {
		return symbol, false, true
	}
	if code, found := cached[symbol]; found && code != "" {
		return code, false, true
	}

	code, err := r.searcher.SearchScripCode(ctx, symbol)
	if err != nil {
		r.log.Warn().Err(err).Str("symbol", symbol).Msg("Symbol search failed")
		return "", false, false
	}
	if code == "" {
		return "", false, false
	}
	return code, true, true
}
