package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermsFor_KeywordsAndOCRWords(t *testing.T) {
	terms := TermsFor(
		[]string{"Database", "Timeout"},
		"Database connection timeout error retrying",
	)

	weights := make(map[string][]float64)
	for _, term := range terms {
		weights[term.Text] = append(weights[term.Text], term.Weight)
	}

	// Keyword terms are case-folded and weighted 1.0.
	assert.Contains(t, weights["database"], 1.0)
	assert.Contains(t, weights["timeout"], 1.0)

	// OCR words get 0.5, including ones duplicating a keyword.
	assert.Contains(t, weights["database"], 0.5)
	assert.Contains(t, weights["connection"], 0.5)
	assert.Contains(t, weights["retrying"], 0.5)
}

func TestTermsFor_FiltersShortWords(t *testing.T) {
	terms := TermsFor(nil, "an ox is by it")
	assert.Empty(t, terms)
}

func TestTermsFor_DeduplicatesOCRWords(t *testing.T) {
	terms := TermsFor(nil, "error error error")
	assert.Len(t, terms, 1)
	assert.Equal(t, "error", terms[0].Text)
	assert.Equal(t, 0.5, terms[0].Weight)
}

func TestTermsFor_EmptyInputs(t *testing.T) {
	assert.Empty(t, TermsFor(nil, ""))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("error")
	assert.NoError(t, err)
	assert.Equal(t, CategoryError, c)

	c, err = ParseCategory("  Documentation ")
	assert.NoError(t, err)
	assert.Equal(t, CategoryDocumentation, c)

	_, err = ParseCategory("MISC")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 1.0, ClampConfidence(1.5))
	assert.Equal(t, 0.0, ClampConfidence(-0.2))
	assert.Equal(t, 0.73, ClampConfidence(0.73))
}
