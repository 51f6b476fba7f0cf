// Package textual computes cyclomatic complexity for Python source without a
// parser. Function boundaries are inferred from indentation and decision
// points are scored per line. The analysis is best-effort: it may misjudge
// boundaries on unusual layouts but it never fails.
package textual

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/models"
)

var (
	headingRe = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`)
	leadingRe = regexp.MustCompile(`^\s*(if|elif|for|while|except)\b`)
	andRe     = regexp.MustCompile(`\band\b`)
	orRe      = regexp.MustCompile(`\bor\b`)
	// VALUE if CONDITION else VALUE, on lines not themselves led by if/elif
	ternaryRe = regexp.MustCompile(`\S\s+if\s+.+?\s+else(\s|:|$)`)
	ifLeadRe  = regexp.MustCompile(`^\s*(if|elif)\b`)
	// comprehension clause: an open bracket, then for ... in ...
	comprehensionRe = regexp.MustCompile(`[\[({][^\[\]{}]*\bfor\b[^\[\]{}]*\bin\b[^\[\]{}]*`)
	ifWordRe        = regexp.MustCompile(`\bif\b`)
	forWordRe       = regexp.MustCompile(`\bfor\b`)
	inWordRe        = regexp.MustCompile(`\bin\b`)
	caseRe          = regexp.MustCompile(`^\s*case\s+`)
	caseWildcardRe  = regexp.MustCompile(`^\s*case\s+_\s*:`)
	assertRe        = regexp.MustCompile(`^\s*assert\b`)
	comparisonRe    = regexp.MustCompile(`==|!=|<=|>=|<|>`)
	chainSplitRe    = regexp.MustCompile(`\band\b|\bor\b|\bnot\b|,|\(|\)|\[|\]|\{|\}`)
)

// Analyzer is the heuristic line-oriented fallback.
type Analyzer struct{}

// New creates a textual analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Supports reports whether the tag names the indentation-sensitive family.
func (a *Analyzer) Supports(lang string) bool {
	return lang == analyzer.LangPython
}

// Analyze discovers function spans and scores them. It never fails on
// source content; only an unsupported tag is an error.
func (a *Analyzer) Analyze(ctx context.Context, lang string, src []byte) ([]models.ComplexityResult, error) {
	if !a.Supports(lang) {
		return nil, fmt.Errorf("%w: %s", analyzer.ErrUnsupportedLanguage, lang)
	}

	lines := strings.Split(string(src), "\n")
	starts := lineStarts(lines)

	var results []models.ComplexityResult
	for _, sp := range discover(lines) {
		results = append(results, models.ComplexityResult{
			Name:        sp.name,
			Line:        sp.headLine + 1,
			Complexity:  score(lines, sp),
			StartOffset: starts[sp.headLine],
			EndOffset:   starts[sp.bodyEnd] + len(lines[sp.bodyEnd]),
		})
	}
	return results, nil
}

// lineStarts precomputes the cumulative byte offset of each line start
// (newline included), so spans are consistent across the whole file
// without re-summation per function.
func lineStarts(lines []string) []int {
	starts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len(line) + 1
	}
	return starts
}

// span is a discovered function boundary. Line indices are 0-based.
type span struct {
	name      string
	headLine  int // line of the def heading
	headEnd   int // line closing the heading
	bodyStart int // first scored line, past any docstring
	bodyEnd   int // last body line
}

// discover performs the single forward boundary scan. Nested defs open their
// own candidates; their spans overlap the enclosing function's span.
func discover(lines []string) []span {
	var spans []span
	for i := range lines {
		m := headingRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		indent := len(m[1])

		// The heading may span multiple lines; it closes at the first line
		// containing a colon. Known limitation: a default-parameter value
		// that itself contains a colon (a dict literal or a lambda) closes
		// the heading early.
		headEnd := -1
		for j := i; j < len(lines); j++ {
			if strings.Contains(lines[j], ":") {
				headEnd = j
				break
			}
		}
		if headEnd == -1 {
			continue
		}

		spans = append(spans, span{
			name:      m[2],
			headLine:  i,
			headEnd:   headEnd,
			bodyStart: skipDocstring(lines, headEnd+1),
			bodyEnd:   bodyEnd(lines, headEnd, indent),
		})
	}
	return spans
}

// skipDocstring advances the body start past a leading docstring,
// handling both single-line and multi-line forms.
func skipDocstring(lines []string, start int) int {
	k := start
	for k < len(lines) && strings.TrimSpace(lines[k]) == "" {
		k++
	}
	if k >= len(lines) {
		return start
	}

	trimmed := strings.TrimSpace(lines[k])
	for _, delim := range []string{`"""`, `'''`} {
		if !strings.HasPrefix(trimmed, delim) {
			continue
		}
		if strings.Contains(trimmed[len(delim):], delim) {
			return k + 1
		}
		for l := k + 1; l < len(lines); l++ {
			if strings.Contains(lines[l], delim) {
				return l + 1
			}
		}
		return len(lines)
	}
	return start
}

// bodyEnd finds the last line whose indentation strictly exceeds the heading
// indentation. Blank and comment-only lines are spanned without affecting the
// indentation test, and lines inside an unterminated triple-quoted string are
// spanned without any indentation check at all.
func bodyEnd(lines []string, headEnd, indent int) int {
	end := headEnd
	st := &stringState{}
	for l := headEnd + 1; l < len(lines); l++ {
		wasInside := st.inTriple
		masked := st.mask(lines[l])
		if wasInside {
			end = l
			continue
		}
		trimmed := strings.TrimSpace(masked)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if indentWidth(lines[l]) <= indent {
			break
		}
		end = l
	}
	return end
}

func indentWidth(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}

// score awards decision points line by line across the discovered span.
// Final complexity is 1 plus the sum of awards. This phase never fails.
func score(lines []string, sp span) int {
	complexity := 1
	st := &stringState{}
	for l := sp.bodyStart; l <= sp.bodyEnd && l < len(lines); l++ {
		wasInside := st.inTriple
		masked := st.mask(lines[l])
		if wasInside {
			continue
		}
		trimmed := strings.TrimSpace(masked)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if idx := strings.IndexByte(masked, '#'); idx >= 0 {
			masked = masked[:idx]
		}
		complexity += scoreLine(masked)
	}
	return complexity
}

// scoreLine awards decision points for one masked line.
func scoreLine(masked string) int {
	award := 0
	if leadingRe.MatchString(masked) {
		award++
	}
	award += len(andRe.FindAllString(masked, -1))
	award += len(orRe.FindAllString(masked, -1))
	// The ternary award is suppressed only on if/elif-led lines, where the
	// leading keyword already charges the condition. A for/while/except line
	// carrying an inline ternary scores both.
	if !ifLeadRe.MatchString(masked) {
		award += len(ternaryRe.FindAllString(masked, -1))
	}
	award += comprehensionIfs(masked)
	if caseRe.MatchString(masked) && !caseWildcardRe.MatchString(masked) {
		award++
	}
	if assertWithMessage(masked) {
		award++
	}
	award += chainedComparisonExtras(masked)
	return award
}

// comprehensionIfs counts filter clauses inside comprehension forms: only if
// occurrences after the for ... in keywords qualify. A ternary in the value
// expression before the for is charged by the ternary rule, not here.
func comprehensionIfs(s string) int {
	count := 0
	for _, clause := range comprehensionRe.FindAllString(s, -1) {
		rest := clause
		if loc := forWordRe.FindStringIndex(rest); loc != nil {
			rest = rest[loc[1]:]
		}
		if loc := inWordRe.FindStringIndex(rest); loc != nil {
			count += len(ifWordRe.FindAllString(rest[loc[1]:], -1))
		}
	}
	return count
}

// assertWithMessage reports an assert statement carrying a message argument,
// i.e. a comma outside any bracket nesting.
func assertWithMessage(s string) bool {
	loc := assertRe.FindStringIndex(s)
	if loc == nil {
		return false
	}
	depth := 0
	for i := loc[1]; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// chainedComparisonExtras awards one per relational operator beyond the first
// when two or more appear in a single chained expression (a < b < c).
// Boolean keywords, commas and brackets delimit chains.
func chainedComparisonExtras(s string) int {
	extras := 0
	for _, seg := range chainSplitRe.Split(s, -1) {
		if n := len(comparisonRe.FindAllString(seg, -1)); n >= 2 {
			extras += n - 1
		}
	}
	return extras
}

// stringState masks string literal contents across lines so keyword matching
// never fires inside text literals. Contents are replaced with empty
// placeholders of matching quote style; the state carries unterminated
// triple-quoted strings from line to line.
type stringState struct {
	inTriple bool
	delim    byte
}

func (s *stringState) mask(line string) string {
	var b strings.Builder
	i, n := 0, len(line)
	for i < n {
		if s.inTriple {
			if i+3 <= n && line[i] == s.delim && line[i+1] == s.delim && line[i+2] == s.delim {
				b.WriteString(strings.Repeat(string(s.delim), 3))
				s.inTriple = false
				i += 3
				continue
			}
			i++
			continue
		}

		c := line[i]
		if c != '\'' && c != '"' {
			b.WriteByte(c)
			i++
			continue
		}

		if i+3 <= n && line[i+1] == c && line[i+2] == c {
			b.WriteString(strings.Repeat(string(c), 3))
			s.inTriple = true
			s.delim = c
			i += 3
			continue
		}

		// single-quoted literal: consume to the closing quote, honoring escapes
		b.WriteByte(c)
		i++
		for i < n {
			if line[i] == '\\' {
				i += 2
				continue
			}
			if line[i] == c {
				b.WriteByte(c)
				i++
				break
			}
			i++
		}
	}
	return b.String()
}
