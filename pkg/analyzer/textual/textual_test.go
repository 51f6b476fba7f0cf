package textual

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/models"
)

func analyzePy(t *testing.T, code string) []models.ComplexityResult {
	t.Helper()
	a := New()
	results, err := a.Analyze(context.Background(), analyzer.LangPython, []byte(code))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return results
}

func single(t *testing.T, code string) models.ComplexityResult {
	t.Helper()
	results := analyzePy(t, code)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1: %+v", len(results), results)
	}
	return results[0]
}

func TestSupports(t *testing.T) {
	a := New()
	if !a.Supports(analyzer.LangPython) {
		t.Error("Supports(python) = false, want true")
	}
	if a.Supports(analyzer.LangJavaScript) {
		t.Error("Supports(javascript) = true, want false")
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	a := New()
	_, err := a.Analyze(context.Background(), analyzer.LangTypeScript, []byte("x"))
	if !errors.Is(err, analyzer.ErrUnsupportedLanguage) {
		t.Fatalf("error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestEmptyBody(t *testing.T) {
	r := single(t, "def empty():\n    pass\n")
	if r.Name != "empty" {
		t.Errorf("Name = %q, want %q", r.Name, "empty")
	}
	if r.Complexity != 1 {
		t.Errorf("Complexity = %d, want 1", r.Complexity)
	}
	if r.Line != 1 {
		t.Errorf("Line = %d, want 1", r.Line)
	}
}

func TestDecisionScoring(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{
			"single if",
			"def f(x):\n    if x:\n        return 1\n    return 0\n",
			2,
		},
		{
			"if elif else",
			"def branch(x):\n    if x > 10:\n        return 1\n    elif x > 5:\n        return 2\n    else:\n        return 3\n",
			3,
		},
		{
			"two and on one line",
			"def f(a, b, c):\n    return a and b and c\n",
			3,
		},
		{
			"nested loops",
			"def grid(m):\n    for row in m:\n        for cell in row:\n            print(cell)\n",
			3,
		},
		{
			"while loop",
			"def spin(n):\n    while n > 0:\n        n -= 1\n",
			2,
		},
		{
			"except handler",
			"def safe(g):\n    try:\n        g()\n    except ValueError:\n        return None\n",
			2,
		},
		{
			"conditional expression",
			"def pick(a, b, flag):\n    return a if flag else b\n",
			2,
		},
		{
			"ternary not double counted on if line",
			"def f(x):\n    if x:\n        return 1\n",
			2,
		},
		{
			"condition with boolean operator",
			"def f(a, b):\n    if a and b:\n        return 1\n    return 0\n",
			3,
		},
		{
			"ternary in for heading scores both",
			"def f(a, b, c):\n    for x in (a if b else c):\n        print(x)\n",
			3,
		},
		{
			"ternary in comprehension value not charged as filter",
			"def f(xs, b, c):\n    ys = [a if b else c for a in xs]\n    return ys\n",
			2,
		},
		{
			"ternary value with comprehension filter",
			"def f(xs):\n    return [a if a else 0 for a in xs if a is not None]\n",
			3,
		},
		{
			"comprehension filter",
			"def positives(items):\n    return [x for x in items if x > 0]\n",
			2,
		},
		{
			"plain comprehension without filter",
			"def doubled(items):\n    return [x * 2 for x in items]\n",
			1,
		},
		{
			"chained comparison",
			"def within(a, b, c):\n    if a < b < c:\n        return True\n    return False\n",
			3,
		},
		{
			"simple comparison no extras",
			"def f(x):\n    if x >= 0:\n        return x\n    return -x\n",
			2,
		},
		{
			"assert with message",
			"def check(x):\n    assert x, \"must be truthy\"\n",
			2,
		},
		{
			"bare assert",
			"def check(x):\n    assert x\n",
			1,
		},
		{
			"assert call commas stay inside brackets",
			"def check(a, b):\n    assert compare(a, b)\n",
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := single(t, tt.code)
			if r.Complexity != tt.want {
				t.Errorf("Complexity = %d, want %d", r.Complexity, tt.want)
			}
		})
	}
}

func TestMatchStatement(t *testing.T) {
	code := `def classify(x):
    match x:
        case 1:
            return "one"
        case 2:
            return "two"
        case _:
            return "many"
`
	r := single(t, code)
	if r.Complexity != 3 {
		t.Errorf("Complexity = %d, want 3 (wildcard case free)", r.Complexity)
	}
}

func TestKeywordsInStringsIgnored(t *testing.T) {
	code := `def speak():
    s = "if x and y or z"
    return s
`
	r := single(t, code)
	if r.Complexity != 1 {
		t.Errorf("Complexity = %d, want 1 (literal content masked)", r.Complexity)
	}
}

func TestKeywordsInCommentsIgnored(t *testing.T) {
	code := `def f(x):
    return x  # if this and that or whatever
`
	r := single(t, code)
	if r.Complexity != 1 {
		t.Errorf("Complexity = %d, want 1 (comment stripped)", r.Complexity)
	}
}

func TestDocstringSkipped(t *testing.T) {
	code := `def documented():
    """Returns a value.

    if and or while for -- none of this counts.
    """
    return 1
`
	r := single(t, code)
	if r.Complexity != 1 {
		t.Errorf("Complexity = %d, want 1 (docstring skipped)", r.Complexity)
	}
}

func TestSingleLineDocstring(t *testing.T) {
	code := `def documented():
    """if and or."""
    return 1
`
	r := single(t, code)
	if r.Complexity != 1 {
		t.Errorf("Complexity = %d, want 1", r.Complexity)
	}
}

func TestTripleQuotedStringSpansDedentedLines(t *testing.T) {
	code := `def template():
    body = """
not indented but still inside the string
if and or
"""
    return body

def after():
    pass
`
	results := analyzePy(t, code)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	tpl := results[0]
	if tpl.Complexity != 1 {
		t.Errorf("template Complexity = %d, want 1", tpl.Complexity)
	}
	// The span must reach past the dedented literal to the real body end.
	if got := code[tpl.StartOffset:tpl.EndOffset]; !strings.Contains(got, "return body") {
		t.Errorf("template span stops early:\n%s", got)
	}
}

func TestMultiLineHeading(t *testing.T) {
	code := `def wide(a,
         b):
    if a:
        return b
    return a
`
	r := single(t, code)
	if r.Name != "wide" {
		t.Errorf("Name = %q, want %q", r.Name, "wide")
	}
	if r.Line != 1 {
		t.Errorf("Line = %d, want 1", r.Line)
	}
	if r.Complexity != 2 {
		t.Errorf("Complexity = %d, want 2", r.Complexity)
	}
}

func TestAsyncDef(t *testing.T) {
	code := "async def fetch(url):\n    if url:\n        return url\n"
	r := single(t, code)
	if r.Name != "fetch" {
		t.Errorf("Name = %q, want %q", r.Name, "fetch")
	}
	if r.Complexity != 2 {
		t.Errorf("Complexity = %d, want 2", r.Complexity)
	}
}

func TestBoundaries(t *testing.T) {
	code := `def first(x):
    if x:
        return 1
    return 0


def second(y):
    return y

print(first(1))
`
	results := analyzePy(t, code)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	first, second := results[0], results[1]
	if first.Complexity != 2 {
		t.Errorf("first Complexity = %d, want 2", first.Complexity)
	}
	if second.Complexity != 1 {
		t.Errorf("second Complexity = %d, want 1", second.Complexity)
	}

	// The first span ends at its last body line, before the blank separator.
	firstText := code[first.StartOffset:first.EndOffset]
	if !strings.HasSuffix(firstText, "return 0") {
		t.Errorf("first span ends badly:\n%q", firstText)
	}
	if strings.Contains(firstText, "second") {
		t.Errorf("first span bleeds into the next function:\n%q", firstText)
	}
	// Module-level code stays out.
	secondText := code[second.StartOffset:second.EndOffset]
	if strings.Contains(secondText, "print") {
		t.Errorf("second span includes module-level code:\n%q", secondText)
	}
}

func TestNestedFunctions(t *testing.T) {
	code := `def outer():
    def inner(x):
        if x:
            return 1
        return 0
    return inner(1)
`
	results := analyzePy(t, code)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	outer, inner := results[0], results[1]
	if outer.Name != "outer" || inner.Name != "inner" {
		t.Fatalf("names = %q, %q", outer.Name, inner.Name)
	}
	// The inner branch scores for both spans.
	if inner.Complexity != 2 {
		t.Errorf("inner Complexity = %d, want 2", inner.Complexity)
	}
	if outer.Complexity != 2 {
		t.Errorf("outer Complexity = %d, want 2", outer.Complexity)
	}
	if inner.StartOffset <= outer.StartOffset || inner.EndOffset > outer.EndOffset {
		t.Errorf("inner span [%d,%d) not inside outer [%d,%d)",
			inner.StartOffset, inner.EndOffset, outer.StartOffset, outer.EndOffset)
	}
}

func TestMethodsInClass(t *testing.T) {
	code := `class Shape:
    def area(self):
        return 0

    def describe(self):
        if self.area() > 0:
            return "flat"
        return "point"
`
	results := analyzePy(t, code)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Name != "area" || results[1].Name != "describe" {
		t.Errorf("names = %q, %q", results[0].Name, results[1].Name)
	}
	if results[1].Complexity != 2 {
		t.Errorf("describe Complexity = %d, want 2", results[1].Complexity)
	}
}

func TestNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"not python at all {{{ ]]]",
		"def broken(",
		"if True:\n    pass\n",
		"\x00\x01\x02",
	}
	a := New()
	for _, in := range inputs {
		if _, err := a.Analyze(context.Background(), analyzer.LangPython, []byte(in)); err != nil {
			t.Errorf("Analyze(%q) failed: %v", in, err)
		}
	}
}

func TestIdempotence(t *testing.T) {
	code := "def f(x):\n    if x and x > 1 < 2:\n        return [y for y in x if y]\n"
	first := analyzePy(t, code)
	second := analyzePy(t, code)
	if len(first) != len(second) {
		t.Fatalf("size mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("results differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestOffsetsValid(t *testing.T) {
	code := "def a():\n    pass\n\ndef b(x):\n    if x:\n        return x\n"
	for _, r := range analyzePy(t, code) {
		if err := r.Validate(len(code)); err != nil {
			t.Errorf("invalid result %+v: %v", r, err)
		}
	}
}
