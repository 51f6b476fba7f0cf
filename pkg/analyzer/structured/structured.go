// Package structured computes cyclomatic complexity from a real syntax tree.
// It covers the JavaScript/TypeScript family, including the JSX/TSX variants.
package structured

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/marchview/cyclomet/pkg/analyzer"
	"github.com/marchview/cyclomet/pkg/models"
)

// functionTypes are the node types treated as function-like: declarations,
// expressions, arrows, generators, methods (incl. accessors and constructors).
var functionTypes = map[string]bool{
	"function_declaration":           true,
	"function":                       true,
	"function_expression":            true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// decisionTypes are the node types that add one decision point each.
// switch_default is deliberately absent: default labels add no path.
var decisionTypes = map[string]bool{
	"if_statement":       true,
	"while_statement":    true,
	"do_statement":       true,
	"for_statement":      true,
	"for_in_statement":   true,
	"for_of_statement":   true,
	"switch_case":        true,
	"catch_clause":       true,
	"ternary_expression": true,
}

// Analyzer is the syntax-tree-based complexity counter.
type Analyzer struct{}

// New creates a structured analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Supports reports whether the tag names a JavaScript/TypeScript variant.
func (a *Analyzer) Supports(lang string) bool {
	switch lang {
	case analyzer.LangJavaScript, analyzer.LangJavaScriptReact,
		analyzer.LangTypeScript, analyzer.LangTypeScriptReact:
		return true
	default:
		return false
	}
}

// grammarFor selects the tree-sitter grammar for a language variant.
// The TSX grammar handles JSX as well; plain JS keeps the lighter grammar.
func grammarFor(lang string) *sitter.Language {
	switch lang {
	case analyzer.LangTypeScript:
		return typescript.GetLanguage()
	case analyzer.LangTypeScriptReact, analyzer.LangJavaScriptReact:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Analyze parses the source and walks every function-like node.
// A tree containing error nodes fails with ParseError and no partial results.
func (a *Analyzer) Analyze(ctx context.Context, lang string, src []byte) ([]models.ComplexityResult, error) {
	if !a.Supports(lang) {
		return nil, fmt.Errorf("%w: %s", analyzer.ErrUnsupportedLanguage, lang)
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammarFor(lang))

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", lang, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &analyzer.ParseError{Language: lang, Detail: firstErrorDetail(root, src)}
	}

	var results []models.ComplexityResult
	walk(root, func(node *sitter.Node, nodeType string) bool {
		if !functionTypes[nodeType] {
			return true
		}
		results = append(results, models.ComplexityResult{
			Name:        functionName(node, src),
			Line:        int(node.StartPoint().Row) + 1,
			Complexity:  1 + countDecisionPoints(node, src),
			StartOffset: int(node.StartByte()),
			EndOffset:   int(node.EndByte()),
		})
		return true
	})

	return results, nil
}

// walk traverses the tree depth-first in source order, caching each node's type.
func walk(node *sitter.Node, visit func(*sitter.Node, string) bool) {
	if node == nil {
		return
	}
	if !visit(node, node.Type()) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visit)
	}
}

// countDecisionPoints counts branch constructs in the function's subtree.
// The walk does not stop at nested function boundaries, so inner-function
// decision points also count toward the enclosing function's total.
func countDecisionPoints(fn *sitter.Node, src []byte) int {
	var count int
	for i := 0; i < int(fn.ChildCount()); i++ {
		walk(fn.Child(i), func(n *sitter.Node, nodeType string) bool {
			if decisionTypes[nodeType] {
				count++
			}
			if nodeType == "binary_expression" || nodeType == "logical_expression" {
				switch operatorOf(n) {
				case "&&", "||", "??":
					count++
				}
			}
			return true
		})
	}
	return count
}

// operatorOf returns the operator token of a binary/logical expression.
func operatorOf(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		switch t := node.Child(i).Type(); t {
		case "&&", "||", "??":
			return t
		}
	}
	return ""
}

// functionName resolves a display name for the function node, in priority
// order: explicit declaration/method name (with get/set accessor prefixes),
// the identifier of an enclosing binding for anonymous functions, otherwise
// the anonymous sentinel.
func functionName(node *sitter.Node, src []byte) string {
	if name := declaredName(node, src); name != "" {
		return name
	}
	if name := boundName(node, src); name != "" {
		return name
	}
	return models.AnonymousName
}

// declaredName extracts the name carried by the node itself.
func declaredName(node *sitter.Node, src []byte) string {
	name := nodeText(node.ChildByFieldName("name"), src)
	if name == "" {
		return ""
	}
	if node.Type() == "method_definition" {
		if kind := accessorKind(node); kind != "" {
			return kind + " " + name
		}
	}
	return name
}

// accessorKind returns "get" or "set" for accessor methods.
func accessorKind(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		switch t := node.Child(i).Type(); t {
		case "get", "set":
			return t
		case "property_identifier", "computed_property_name", "string", "number":
			// reached the name; no accessor keyword preceded it
			return ""
		}
	}
	return ""
}

// boundName climbs to the enclosing binding of an anonymous function:
// a variable declarator, object property, field, or assignment target.
func boundName(node *sitter.Node, src []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator":
		return nodeText(parent.ChildByFieldName("name"), src)
	case "pair":
		return trimQuotes(nodeText(parent.ChildByFieldName("key"), src))
	case "assignment_expression":
		return nodeText(parent.ChildByFieldName("left"), src)
	case "field_definition":
		return nodeText(parent.ChildByFieldName("property"), src)
	case "public_field_definition":
		return nodeText(parent.ChildByFieldName("name"), src)
	case "parenthesized_expression":
		return boundName(parent, src)
	}
	return ""
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"'`)
}

// nodeText extracts the source text for a node.
func nodeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(src)) {
		return ""
	}
	return string(src[start:end])
}

// firstErrorDetail locates the first error node for the ParseError message.
func firstErrorDetail(root *sitter.Node, src []byte) string {
	var detail string
	walk(root, func(n *sitter.Node, nodeType string) bool {
		if detail != "" {
			return false
		}
		if nodeType == "ERROR" || n.IsMissing() {
			detail = fmt.Sprintf("invalid syntax at line %d", n.StartPoint().Row+1)
			return false
		}
		return true
	})
	return detail
}
