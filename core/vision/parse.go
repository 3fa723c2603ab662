package vision

import (
	"encoding/json"
	"regexp"

	"github.com/lophius/screenkeep/core/store"
)

// jsonObject grabs the outermost braced region of a reply; models
// occasionally wrap the JSON in prose or a code fence.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type rawAnalysis struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Confidence  float64  `json:"confidence"`
}

// parseAnalysis extracts the structured analysis from a model reply.
// An unparseable reply degrades to an OTHER classification with low
// confidence rather than failing the file.
func parseAnalysis(reply string) *Analysis {
	match := jsonObject.FindString(reply)
	if match == "" {
		return fallbackAnalysis(reply)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return fallbackAnalysis(reply)
	}

	category, err := store.ParseCategory(raw.Category)
	if err != nil {
		category = store.CategoryOther
	}

	keywords := raw.Keywords
	if len(keywords) > store.MaxKeywords {
		keywords = keywords[:store.MaxKeywords]
	}

	return &Analysis{
		Description: raw.Description,
		Category:    category,
		Keywords:    keywords,
		Confidence:  store.ClampConfidence(raw.Confidence),
	}
}

func fallbackAnalysis(reply string) *Analysis {
	return &Analysis{
		Description: truncate(reply, 200),
		Category:    store.CategoryOther,
		Confidence:  0.5,
	}
}
