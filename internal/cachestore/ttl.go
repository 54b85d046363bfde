package cachestore

import "time"

// TTL constants for the cache stores. These govern how long a loaded entry is
// considered fresh; expired entries are filtered on load, not deleted.
const (
	// TTLPrice - live quotes go stale quickly; the dashboard polls on a
	// similar interval so anything older is worthless.
	TTLPrice = 2 * time.Minute

	// TTLFundamentals - valuation ratios move with filings, not ticks, so a
	// day of staleness is acceptable.
	TTLFundamentals = 24 * time.Hour
)

// Cache file names inside the data directory.
const (
	FileScripCodes   = "scripcodes.json"
	FilePrices       = "prices.json"
	FileFundamentals = "fundamentals.json"
)
