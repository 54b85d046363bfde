package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher returns canned scrip codes and records which symbols hit the
// network.
type fakeSearcher struct {
	mu       sync.Mutex
	codes    map[string]string
	failures map[string]error
	calls    []string
}

func (f *fakeSearcher) SearchScripCode(_ context.Context, symbol string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if err, ok := f.failures[symbol]; ok {
		return "", err
	}
	return f.codes[symbol], nil
}

func TestIsScripCode(t *testing.T) {
	assert.True(t, IsScripCode("500325"))
	assert.True(t, IsScripCode("1"))
	assert.False(t, IsScripCode("RELIANCE"))
	assert.False(t, IsScripCode("500325A"))
	assert.False(t, IsScripCode(""))
	assert.False(t, IsScripCode("50 0325"))
}

func TestResolveAllPassthroughAndCache(t *testing.T) {
	searcher := &fakeSearcher{codes: map[string]string{}}
	r := New(searcher, zerolog.Nop())

	result := r.ResolveAll(context.Background(),
		[]string{"500325", "TCS"},
		map[string]string{"TCS": "532540"},
	)

	assert.Equal(t, map[string]string{"500325": "500325", "TCS": "532540"}, result.Resolved)
	assert.Empty(t, result.Discovered)
	assert.Empty(t, result.Unresolved)
	// Neither symbol should have touched the network.
	assert.Empty(t, searcher.calls)
}

func TestResolveAllNetworkFallback(t *testing.T) {
	searcher := &fakeSearcher{codes: map[string]string{"INFY": "500209"}}
	r := New(searcher, zerolog.Nop())

	result := r.ResolveAll(context.Background(), []string{"INFY"}, map[string]string{})

	assert.Equal(t, map[string]string{"INFY": "500209"}, result.Resolved)
	// Network discoveries are reported separately for the batched persist.
	assert.Equal(t, map[string]string{"INFY": "500209"}, result.Discovered)
	assert.Equal(t, []string{"INFY"}, searcher.calls)
}

func TestResolveAllFailureIsolation(t *testing.T) {
	searcher := &fakeSearcher{
		codes:    map[string]string{"INFY": "500209"},
		failures: map[string]error{"BROKEN": errors.New("connection reset")},
	}
	r := New(searcher, zerolog.Nop())

	result := r.ResolveAll(context.Background(),
		[]string{"INFY", "BROKEN", "UNKNOWN"},
		map[string]string{},
	)

	// One failed search does not abort the rest.
	assert.Equal(t, "500209", result.Resolved["INFY"])
	assert.ElementsMatch(t, []string{"BROKEN", "UNKNOWN"}, result.Unresolved)
	// Failures are not cached as negative results.
	assert.NotContains(t, result.Discovered, "BROKEN")
	assert.NotContains(t, result.Discovered, "UNKNOWN")
}

func TestResolveOne(t *testing.T) {
	searcher := &fakeSearcher{codes: map[string]string{"INFY": "500209"}}
	r := New(searcher, zerolog.Nop())
	ctx := context.Background()

	code, discovered, ok := r.ResolveOne(ctx, "532540", nil)
	require.True(t, ok)
	assert.False(t, discovered)
	assert.Equal(t, "532540", code)

	code, discovered, ok = r.ResolveOne(ctx, "TCS", map[string]string{"TCS": "532540"})
	require.True(t, ok)
	assert.False(t, discovered)
	assert.Equal(t, "532540", code)

	code, discovered, ok = r.ResolveOne(ctx, "INFY", map[string]string{})
	require.True(t, ok)
	assert.True(t, discovered)
	assert.Equal(t, "500209", code)

	_, _, ok = r.ResolveOne(ctx, "UNKNOWN", map[string]string{})
	assert.False(t, ok)
}
