// Package models defines the result types shared by every analyzer.
package models

import "fmt"

// AnonymousName is the sentinel reported for functions with no resolvable name.
const AnonymousName = "<anonymous>"

// ComplexityResult describes one discovered function.
// Offsets are byte offsets into the UTF-8 source; StartOffset <= EndOffset.
type ComplexityResult struct {
	Name        string `json:"name"`
	Line        int    `json:"line"` // 1-based start line
	Complexity  int    `json:"complexity"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// Validate checks the result invariants against a source of the given length.
func (r ComplexityResult) Validate(sourceLen int) error {
	if r.Complexity < 1 {
		return fmt.Errorf("complexity %d < 1 for %q", r.Complexity, r.Name)
	}
	if r.StartOffset > r.EndOffset {
		return fmt.Errorf("start offset %d > end offset %d for %q", r.StartOffset, r.EndOffset, r.Name)
	}
	if r.StartOffset < 0 || r.EndOffset > sourceLen {
		return fmt.Errorf("span [%d,%d] outside source of %d bytes for %q", r.StartOffset, r.EndOffset, sourceLen, r.Name)
	}
	return nil
}

// Contains reports whether the function span covers the given offset.
func (r ComplexityResult) Contains(offset int) bool {
	return offset >= r.StartOffset && offset <= r.EndOffset
}

// FileResult aggregates results for one analyzed file.
type FileResult struct {
	Path      string             `json:"path"`
	Language  string             `json:"language"`
	Functions []ComplexityResult `json:"functions"`
}

// Summary provides aggregate statistics over a set of file results.
type Summary struct {
	TotalFiles     int     `json:"total_files"`
	TotalFunctions int     `json:"total_functions"`
	AvgComplexity  float64 `json:"avg_complexity"`
	MaxComplexity  int     `json:"max_complexity"`
	LowCount       int     `json:"low_count"`
	MediumCount    int     `json:"medium_count"`
	HighCount      int     `json:"high_count"`
}

// Summarize computes aggregate statistics with the given severity threshold.
func Summarize(files []FileResult, threshold int) Summary {
	s := Summary{TotalFiles: len(files)}

	var total int
	for _, f := range files {
		s.TotalFunctions += len(f.Functions)
		for _, fn := range f.Functions {
			total += fn.Complexity
			if fn.Complexity > s.MaxComplexity {
				s.MaxComplexity = fn.Complexity
			}
			switch Classify(fn.Complexity, threshold) {
			case SeverityLow:
				s.LowCount++
			case SeverityMedium:
				s.MediumCount++
			case SeverityHigh:
				s.HighCount++
			}
		}
	}

	if s.TotalFunctions > 0 {
		s.AvgComplexity = float64(total) / float64(s.TotalFunctions)
	}
	return s
}
