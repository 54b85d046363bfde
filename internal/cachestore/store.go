// Package cachestore provides best-effort JSON file caches for vendor data.
// Each store owns one document on disk and reads/writes it wholesale; there
// is no locking, so under concurrent writers the later write wins. Caching
// only affects staleness, never the correctness of the portfolio numbers, so
// every failure path degrades to an empty cache instead of an error.
package cachestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Entry wraps a cached value with its write timestamp for TTL checks.
type Entry[T any] struct {
	Timestamp time.Time `json:"timestamp"`
	Data      T         `json:"data"`
}

// TTLStore is a file-backed cache whose entries expire a fixed duration
// after they were written. Expired entries are excluded from Load results
// but stay on disk until the next Save overwrites the document.
type TTLStore[T any] struct {
	path string
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

// NewTTLStore creates a TTL cache store backed by the JSON document at path.
func NewTTLStore[T any](path string, ttl time.Duration, log zerolog.Logger) *TTLStore[T] {
	return &TTLStore[T]{
		path: path,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With().Str("component", "cachestore").Str("file", filepath.Base(path)).Logger(),
	}
}

// Load reads the cache document and returns the fresh entries keyed by scrip
// code. A missing, empty or unparsable file yields an empty map, never an
// error.
func (s *TTLStore[T]) Load() map[string]T {
	doc := readDocument[map[string]Entry[T]](s.path, s.log)
	if doc == nil {
		return map[string]T{}
	}

	now := s.now()
	fresh := make(map[string]T, len(doc))
	for key, entry := range doc {
		if now.Sub(entry.Timestamp) < s.ttl {
			fresh[key] = entry.Data
		}
	}

	if expired := len(doc) - len(fresh); expired > 0 {
		s.log.Debug().Int("expired", expired).Int("fresh", len(fresh)).Msg("Filtered expired cache entries")
	}

	return fresh
}

// Save replaces the cache document with the given mapping, stamping every
// entry with the current time. Failures are logged and swallowed; caching is
// best-effort and never blocks the caller.
func (s *TTLStore[T]) Save(data map[string]T) {
	now := s.now()
	doc := make(map[string]Entry[T], len(data))
	for key, value := range data {
		doc[key] = Entry[T]{Timestamp: now, Data: value}
	}
	writeDocument(s.path, doc, s.log)
}

// ScripStore is the permanent symbol-to-scripcode mapping cache. Entries
// never expire; scrip codes are assumed stable for the life of the system.
type ScripStore struct {
	path string
	log  zerolog.Logger
}

// NewScripStore creates the scrip code cache backed by the document at path.
func NewScripStore(path string, log zerolog.Logger) *ScripStore {
	return &ScripStore{
		path: path,
		log:  log.With().Str("component", "cachestore").Str("file", filepath.Base(path)).Logger(),
	}
}

// Load reads the full symbol-to-scripcode mapping. A missing or unparsable
// file yields an empty map.
func (s *ScripStore) Load() map[string]string {
	doc := readDocument[map[string]string](s.path, s.log)
	if doc == nil {
		return map[string]string{}
	}
	return doc
}

// Save replaces the mapping document. Failures are logged and swallowed.
func (s *ScripStore) Save(data map[string]string) {
	writeDocument(s.path, data, s.log)
}

// readDocument reads and unmarshals a cache file. All failure modes return
// the zero value so callers see an empty cache.
func readDocument[D any](path string, log zerolog.Logger) D {
	var zero D

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("Failed to read cache file")
		}
		return zero
	}
	if len(raw) == 0 {
		return zero
	}

	var doc D
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn().Err(err).Msg("Failed to parse cache file, treating as empty")
		return zero
	}
	return doc
}

// writeDocument marshals and writes a cache document wholesale. The write
// goes through a temp file plus rename so readers never observe a partially
// written document.
func writeDocument[D any](path string, doc D, log zerolog.Logger) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal cache document")
		return
	}

	tmp := fmt.Sprintf("%s.tmp", path)
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		log.Warn().Err(err).Msg("Failed to write cache file")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Warn().Err(err).Msg("Failed to replace cache file")
		return
	}
}
