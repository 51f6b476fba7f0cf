package analyzer

import (
	"path/filepath"
	"strings"
)

// Language tags follow editor-host identifiers.
const (
	LangPython          = "python"
	LangJavaScript      = "javascript"
	LangJavaScriptReact = "javascriptreact"
	LangTypeScript      = "typescript"
	LangTypeScriptReact = "typescriptreact"
)

// DetectLanguage determines the language tag from a file path.
// Returns the empty string for unsupported files.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return LangPython
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		return LangJavaScriptReact
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTypeScriptReact
	default:
		return ""
	}
}
