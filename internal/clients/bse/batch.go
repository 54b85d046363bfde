package bse

import (
	"context"
	"sync"
	"time"
)

// FetchQuotes fetches quotes for many scrip codes in rate-limited batches.
// Codes within one batch are fetched concurrently; a fixed delay separates
// successive batches (no delay after the last). Codes whose fetch fails are
// simply absent from the result.
func (c *Client) FetchQuotes(ctx context.Context, scripCodes []string) map[string]PriceQuote {
	return fetchBatched(ctx, c, scripCodes, func(ctx context.Context, code string) (PriceQuote, bool) {
		quote, ok := c.FetchQuote(ctx, code)
		if !ok {
			return PriceQuote{}, false
		}
		return *quote, true
	})
}

// FetchFundamentalsMany fetches fundamentals for many scrip codes with the
// same batching behavior as FetchQuotes.
func (c *Client) FetchFundamentalsMany(ctx context.Context, scripCodes []string) map[string]FundamentalsRecord {
	return fetchBatched(ctx, c, scripCodes, func(ctx context.Context, code string) (FundamentalsRecord, bool) {
		rec, ok := c.FetchFundamentals(ctx, code)
		if !ok {
			return FundamentalsRecord{}, false
		}
		return *rec, true
	})
}

// fetchBatched partitions scripCodes into fixed-size batches, runs each batch
// concurrently and sleeps between batches. This is a fixed-window rate
// limiter, not an adaptive one; the vendor only cares about burst spacing.
func fetchBatched[T any](ctx context.Context, c *Client, scripCodes []string, fetch func(context.Context, string) (T, bool)) map[string]T {
	results := make(map[string]T, len(scripCodes))
	if len(scripCodes) == 0 {
		return results
	}

	var mu sync.Mutex

	for start := 0; start < len(scripCodes); start += batchSize {
		end := start + batchSize
		if end > len(scripCodes) {
			end = len(scripCodes)
		}
		batch := scripCodes[start:end]

		var wg sync.WaitGroup
		for _, code := range batch {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				value, ok := fetch(ctx, code)
				if !ok {
					return
				}
				mu.Lock()
				results[code] = value
				mu.Unlock()
			}(code)
		}
		wg.Wait()

		// Pause before the next batch, skipping the delay after the final one.
		if end < len(scripCodes) {
			c.sleep(batchDelay)
		}
	}

	c.log.Debug().
		Int("requested", len(scripCodes)).
		Int("fetched", len(results)).
		Int("batches", (len(scripCodes)+batchSize-1)/batchSize).
		Dur("batch_delay", batchDelay).
		Msg("Batched fetch complete")

	return results
}

// BatchDelayFor reports the total delay a batched fetch of count codes will
// spend sleeping. Used by the refresher to budget its per-run timeout.
func BatchDelayFor(count int) time.Duration {
	if count <= batchSize {
		return 0
	}
	batches := (count + batchSize - 1) / batchSize
	return time.Duration(batches-1) * batchDelay
}
