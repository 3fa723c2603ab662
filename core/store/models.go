// Package store owns the persistent screenshot records and the derived
// search structures (term index and full-text mirror). It is the only
// package with write access to those tables.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxKeywords is the cap on keywords stored per screenshot.
// Insertion order is relevance order.
const MaxKeywords = 10

// MaxTags is the cap on tags; tags are the top slice of keywords.
const MaxTags = 5

// Category classifies a screenshot into one of a fixed set of buckets.
type Category string

const (
	CategoryError         Category = "ERROR"
	CategoryCode          Category = "CODE"
	CategoryUI            Category = "UI"
	CategoryDocumentation Category = "DOCUMENTATION"
	CategoryData          Category = "DATA"
	CategoryCommunication Category = "COMMUNICATION"
	CategoryOther         Category = "OTHER"
)

var validCategories = map[Category]struct{}{
	CategoryError:         {},
	CategoryCode:          {},
	CategoryUI:            {},
	CategoryDocumentation: {},
	CategoryData:          {},
	CategoryCommunication: {},
	CategoryOther:         {},
}

// ParseCategory normalizes and validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validCategories[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid reports whether the category is one of the fixed enumeration.
func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}

// Screenshot is one indexed screenshot row.
type Screenshot struct {
	ID                int64
	OriginalFilename  string
	CurrentFilename   string
	Path              string // absolute path after organizing, unique
	Hash              string // SHA-256 of original bytes, unique
	SizeBytes         int64
	Width             int
	Height            int
	Format            string
	CreatedDate       time.Time
	ProcessedDate     time.Time
	Category          Category
	Keywords          []string
	OCRText           string
	VisionDescription string
	Confidence        float64
	Thumbnail         []byte
	Tags              []string
}

// ClampConfidence forces a confidence value into [0.0, 1.0]. Upstream
// model output occasionally drifts outside the range.
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// EncodeList serializes a string list for a TEXT column.
func EncodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeList parses a TEXT column back into a string list.
// An empty column decodes to an empty list, not an error.
func DecodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return values, nil
}

func truncateList(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}
