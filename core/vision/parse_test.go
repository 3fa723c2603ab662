package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lophius/screenkeep/core/store"
)

func TestParseAnalysis_CleanJSON(t *testing.T) {
	reply := `{
		"description": "A database timeout error dialog.",
		"category": "ERROR",
		"keywords": ["database", "timeout", "connection"],
		"confidence": 0.92
	}`

	analysis := parseAnalysis(reply)
	assert.Equal(t, store.CategoryError, analysis.Category)
	assert.Equal(t, []string{"database", "timeout", "connection"}, analysis.Keywords)
	assert.InDelta(t, 0.92, analysis.Confidence, 1e-9)
}

func TestParseAnalysis_JSONWrappedInProse(t *testing.T) {
	reply := "Here is the analysis:\n```json\n" +
		`{"description": "Code editor.", "category": "code", "keywords": ["python"], "confidence": 0.8}` +
		"\n```\nLet me know if you need more."

	analysis := parseAnalysis(reply)
	assert.Equal(t, store.CategoryCode, analysis.Category)
	assert.Equal(t, []string{"python"}, analysis.Keywords)
}

func TestParseAnalysis_UnknownCategoryFallsBackToOther(t *testing.T) {
	reply := `{"description": "x", "category": "SCREENSHOT", "keywords": [], "confidence": 0.7}`

	analysis := parseAnalysis(reply)
	assert.Equal(t, store.CategoryOther, analysis.Category)
}

func TestParseAnalysis_GarbageReply(t *testing.T) {
	analysis := parseAnalysis("I cannot analyze this image.")

	assert.Equal(t, store.CategoryOther, analysis.Category)
	assert.InDelta(t, 0.5, analysis.Confidence, 1e-9)
	assert.Equal(t, "I cannot analyze this image.", analysis.Description)
}

func TestParseAnalysis_ClampsConfidenceAndKeywords(t *testing.T) {
	reply := `{"description": "x", "category": "DATA",
		"keywords": ["a","b","c","d","e","f","g","h","i","j","k","l"],
		"confidence": 1.4}`

	analysis := parseAnalysis(reply)
	assert.Equal(t, 1.0, analysis.Confidence)
	assert.Len(t, analysis.Keywords, store.MaxKeywords)
}
