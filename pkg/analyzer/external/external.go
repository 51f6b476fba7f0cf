package external

import (
	"context"
	"sync"

	"github.com/marchview/cyclomet/pkg/models"
)

// Fallback is the analyzer used when delegation is unavailable or tripped.
type Fallback interface {
	Supports(lang string) bool
	Analyze(ctx context.Context, lang string, src []byte) ([]models.ComplexityResult, error)
}

// Analyzer prefers the external subprocess and falls back to the heuristic
// analyzer. The fallback is sticky: after the first delegation failure the
// external path is never retried for the remainder of the session, so a
// broken or slow analyzer is not re-invoked on every edit.
type Analyzer struct {
	client   *Client
	fallback Fallback

	mu      sync.Mutex
	tripped bool
}

// New wires a delegation client (may be nil when none is configured) in
// front of the heuristic fallback.
func New(client *Client, fallback Fallback) *Analyzer {
	return &Analyzer{client: client, fallback: fallback}
}

// Supports defers to the fallback's language predicate.
func (a *Analyzer) Supports(lang string) bool {
	return a.fallback.Supports(lang)
}

// Tripped reports whether the delegation circuit breaker is open.
func (a *Analyzer) Tripped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tripped
}

// Analyze tries delegation once per call until it fails, then uses the
// fallback permanently. Delegation failures are absorbed, never surfaced.
func (a *Analyzer) Analyze(ctx context.Context, lang string, src []byte) ([]models.ComplexityResult, error) {
	if a.client == nil || a.Tripped() {
		return a.fallback.Analyze(ctx, lang, src)
	}

	results, err := a.client.Analyze(ctx, src)
	if err != nil {
		a.mu.Lock()
		a.tripped = true
		a.mu.Unlock()
		return a.fallback.Analyze(ctx, lang, src)
	}
	return results, nil
}
