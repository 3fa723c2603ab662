package naming

import (
	"strings"

	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Subcategory Detection
// =============================================================================

var codeLanguages = map[string]string{
	"python":     "Python",
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"java":       "Java",
	"rust":       "Rust",
	"go":         "Go",
	"config":     "Config",
	"yaml":       "Config",
	"json":       "Config",
}

var uiComponents = map[string]string{
	"dashboard": "Dashboard",
	"login":     "Auth",
	"signup":    "Auth",
	"settings":  "Settings",
	"form":      "Forms",
}

// Subcategory derives a folder-level subcategory from the leading
// keywords. Empty when no keyword matches a known pattern.
func Subcategory(category store.Category, keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}

	lower := make([]string, len(keywords))
	for i, kw := range keywords {
		lower[i] = strings.ToLower(kw)
	}

	switch category {
	case store.CategoryError:
		return errorSubcategory(lower)
	case store.CategoryCode:
		return lookupFirst(lower, codeLanguages)
	case store.CategoryUI:
		return lookupFirst(lower, uiComponents)
	case store.CategoryData:
		return dataSubcategory(lower)
	}
	return ""
}

func errorSubcategory(keywords []string) string {
	if containsAny(keywords, "database", "db") {
		return "Database"
	}
	if containsAny(keywords, "network", "timeout", "connection") {
		return "Network"
	}
	if containsAny(keywords, "memory", "null", "undefined") {
		return "Runtime"
	}
	if containsAny(keywords, "404", "500", "503") {
		return "HTTP"
	}
	return ""
}

func dataSubcategory(keywords []string) string {
	if containsAny(keywords, "chart", "graph") {
		return "Charts"
	}
	if containsAny(keywords, "report") {
		return "Reports"
	}
	if containsAny(keywords, "table") {
		return "Tables"
	}
	return ""
}

func lookupFirst(keywords []string, table map[string]string) string {
	for _, kw := range keywords {
		if mapped, ok := table[kw]; ok {
			return mapped
		}
	}
	return ""
}

func containsAny(keywords []string, candidates ...string) bool {
	for _, kw := range keywords {
		for _, c := range candidates {
			if kw == c {
				return true
			}
		}
	}
	return false
}
