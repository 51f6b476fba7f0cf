// Package analyzer defines the analyzer contract and the language dispatcher.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/marchview/cyclomet/pkg/models"
)

// ErrUnsupportedLanguage is returned when no registered analyzer accepts a language tag.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseError reports a structured parse failure. It is surfaced to the
// caller, never silently discarded; no partial results accompany it.
type ParseError struct {
	Language string
	Detail   string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parse error in %s source", e.Language)
	}
	return fmt.Sprintf("parse error in %s source: %s", e.Language, e.Detail)
}

// Analyzer produces complexity results for source text in a supported language.
type Analyzer interface {
	// Supports reports whether the analyzer accepts the language tag.
	Supports(lang string) bool
	// Analyze returns per-function results in source order.
	Analyze(ctx context.Context, lang string, src []byte) ([]models.ComplexityResult, error)
}

// Registry holds an ordered set of analyzers. Registration order is the
// tie-break when predicates overlap: first match wins.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an analyzer to the dispatch order.
func (r *Registry) Register(a Analyzer) {
	r.analyzers = append(r.analyzers, a)
}

// Dispatch returns the first analyzer that supports the language tag.
func (r *Registry) Dispatch(lang string) (Analyzer, error) {
	for _, a := range r.analyzers {
		if a.Supports(lang) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
}

// Analyze dispatches and runs the matching analyzer.
func (r *Registry) Analyze(ctx context.Context, lang string, src []byte) ([]models.ComplexityResult, error) {
	a, err := r.Dispatch(lang)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, lang, src)
}
