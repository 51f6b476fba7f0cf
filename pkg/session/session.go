// Package session tracks per-document analysis state across edits. Each open
// document moves through Empty -> Full -> Stale; stale entries are resolved
// by a full reanalysis or, when a cursor offset narrows the edit to one
// function, by an incremental merge that reports only that function as
// changed. The merge still reanalyzes the whole text internally; it reduces
// what is reported as changed, not recomputation cost.
package session

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/models"
)

// DriftTolerance is the allowed start-offset difference when matching the
// same function across two analyses of slightly edited text.
const DriftTolerance = 100

// NoCursor marks a request without a cursor offset.
const NoCursor = -1

type state int

const (
	stateEmpty state = iota
	stateFull
)

// Request is one analysis call for an open document.
type Request struct {
	URI      string
	Language string
	Text     []byte
	// Version is the monotonic document version reported by the editing host.
	Version int
	// Cursor is the byte offset of the edit location, or NoCursor.
	Cursor int
}

// Tracker serializes analysis per document and caches results by version.
type Tracker struct {
	registry *analyzer.Registry

	mu   sync.Mutex
	docs map[string]*document
}

type document struct {
	mu      sync.Mutex
	state   state
	version int
	hash    string
	results []models.ComplexityResult
}

// NewTracker creates a tracker dispatching through the given registry.
func NewTracker(registry *analyzer.Registry) *Tracker {
	return &Tracker{
		registry: registry,
		docs:     make(map[string]*document),
	}
}

// Analyze returns the current result list for the document, reusing cached
// results when the version or content hash is unchanged and merging
// incrementally when the edit is confined to one cached function.
func (t *Tracker) Analyze(ctx context.Context, req Request) ([]models.ComplexityResult, error) {
	doc := t.doc(req.URI)

	// Mutations for one document are serialized; the analyzer itself runs
	// outside this lock further down.
	doc.mu.Lock()

	if doc.state == stateFull && doc.version == req.Version {
		cached := cloneResults(doc.results)
		doc.mu.Unlock()
		return cached, nil
	}

	hash := hashText(req.Text)
	if doc.state == stateFull && doc.hash == hash {
		// Version bumped but the text is identical: adopt the version
		// without re-running the analyzer.
		doc.version = req.Version
		cached := cloneResults(doc.results)
		doc.mu.Unlock()
		return cached, nil
	}

	fenceVersion := doc.version
	wasFull := doc.state == stateFull
	cached := cloneResults(doc.results)
	doc.mu.Unlock()

	fresh, err := t.registry.Analyze(ctx, req.Language, req.Text)
	if err != nil {
		return nil, err
	}

	merged := fresh
	if wasFull && req.Cursor != NoCursor {
		merged = merge(cached, fresh, req.Cursor)
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	// Version fence: commit only if no later analysis got there first or
	// this result is for a newer version. A stale completion still returns
	// its results but never overwrites newer cached state.
	if doc.state == stateEmpty || doc.version == fenceVersion || req.Version > doc.version {
		doc.state = stateFull
		doc.version = req.Version
		doc.hash = hash
		doc.results = cloneResults(merged)
	}
	return merged, nil
}

// Results returns the cached result list for an open document, if any.
func (t *Tracker) Results(uri string) ([]models.ComplexityResult, bool) {
	t.mu.Lock()
	doc, ok := t.docs[uri]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.state != stateFull {
		return nil, false
	}
	return cloneResults(doc.results), true
}

// Close removes the document's cache entry. There is no other eviction.
func (t *Tracker) Close(uri string) {
	t.mu.Lock()
	delete(t.docs, uri)
	t.mu.Unlock()
}

func (t *Tracker) doc(uri string) *document {
	t.mu.Lock()
	defer t.mu.Unlock()
	doc, ok := t.docs[uri]
	if !ok {
		doc = &document{}
		t.docs[uri] = doc
	}
	return doc
}

// merge keeps every cached entry except the one under the cursor, which is
// replaced by its freshly computed counterpart. Any sign of a structural
// change discards the merge in favor of the fresh result set.
func merge(cached, fresh []models.ComplexityResult, cursor int) []models.ComplexityResult {
	target := -1
	for i, r := range cached {
		if r.Contains(cursor) {
			target = i
			break
		}
	}
	if target == -1 {
		// Cursor in no known function: likely a brand-new function.
		return fresh
	}

	counterpart := -1
	for i, r := range fresh {
		if r.Name == cached[target].Name && abs(r.StartOffset-cached[target].StartOffset) < DriftTolerance {
			counterpart = i
			break
		}
	}
	if counterpart == -1 || len(fresh) != len(cached) {
		// Function renamed, moved beyond tolerance, added, or removed.
		return fresh
	}

	merged := cloneResults(cached)
	merged[target] = fresh[counterpart]
	return merged
}

func hashText(text []byte) string {
	sum := blake3.Sum256(text)
	return hex.EncodeToString(sum[:])
}

func cloneResults(results []models.ComplexityResult) []models.ComplexityResult {
	if results == nil {
		return nil
	}
	out := make([]models.ComplexityResult, len(results))
	copy(out, results)
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
