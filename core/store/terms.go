package store

import "strings"

// Term is one derived search-term row.
type Term struct {
	Text   string
	Weight float64
}

const (
	// KeywordWeight ranks classifier keywords above incidental OCR words.
	KeywordWeight = 1.0

	// OCRWordWeight is the weight of a word that merely appears in the
	// extracted text.
	OCRWordWeight = 0.5

	// minOCRWordLen filters out short noise tokens from OCR output.
	minOCRWordLen = 3
)

// TermsFor derives the full search-term set for a screenshot from its
// keywords and OCR text. This is a pure function of those two inputs:
// RebuildIndex depends on being able to regenerate every derived row
// from the stored record alone.
//
// Every keyword yields a weight-1.0 term. Every distinct OCR word of at
// least three characters yields a weight-0.5 term, including words that
// duplicate a keyword; a query hitting both sums to 1.5.
func TermsFor(keywords []string, ocrText string) []Term {
	terms := make([]Term, 0, len(keywords))

	for _, keyword := range keywords {
		terms = append(terms, Term{
			Text:   strings.ToLower(keyword),
			Weight: KeywordWeight,
		})
	}

	if ocrText == "" {
		return terms
	}

	seen := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(ocrText)) {
		if len(word) < minOCRWordLen {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, Term{
			Text:   word,
			Weight: OCRWordWeight,
		})
	}

	return terms
}
