// Package naming generates descriptive screenshot filenames of the
// form DATE_CATEGORY-CODE_KEYWORDS_HASH.ext and computes content
// hashes for deduplication.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultMaxLength caps generated filenames. Well under every
	// mainstream filesystem's 255-byte component limit.
	DefaultMaxLength = 200

	// maxFilenameKeywords is how many keywords appear in the name.
	maxFilenameKeywords = 4

	// shortHashLen is the number of content-hash hex characters
	// embedded in the filename to disambiguate same-day retakes.
	shortHashLen = 4

	// maxDuplicateSuffix bounds the (n) duplicate counter.
	maxDuplicateSuffix = 1000
)

// ErrTooManyDuplicates indicates the duplicate counter was exhausted.
var ErrTooManyDuplicates = errors.New("too many duplicate filenames")

// windowsReserved are device names that cannot be used as filenames on
// Windows regardless of extension.
var windowsReserved = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

var categoryCodes = map[store.Category]string{
	store.CategoryError:         "Error",
	store.CategoryCode:          "Code",
	store.CategoryUI:            "UI",
	store.CategoryDocumentation: "Docs",
	store.CategoryData:          "Data",
	store.CategoryCommunication: "Comm",
	store.CategoryOther:         "Other",
}

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*]`)
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
	repeatedScores  = regexp.MustCompile(`_+`)
)

// =============================================================================
// FileHash
// =============================================================================

// FileHash computes the SHA-256 of a file's content as lowercase hex.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// =============================================================================
// Namer
// =============================================================================

// Namer builds filenames from classification results.
type Namer struct {
	maxLength int
}

func NewNamer(maxLength int) *Namer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Namer{maxLength: maxLength}
}

// Generate builds a filename from the classification, the creation
// date, the file's content hash, and the original extension.
func (n *Namer) Generate(category store.Category, keywords []string, contentHash string, createdDate time.Time, ext string) string {
	parts := []string{
		createdDate.Format("2006-01-02"),
		categoryCode(category, keywords),
		formatKeywords(keywords),
		shortHash(contentHash),
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}

	filename := strings.Join(nonEmpty, "_") + normalizeExt(ext)
	filename = sanitize(filename)
	return n.truncate(filename, normalizeExt(ext))
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

func shortHash(contentHash string) string {
	if len(contentHash) < shortHashLen {
		return contentHash
	}
	return contentHash[:shortHashLen]
}

func categoryCode(category store.Category, keywords []string) string {
	code, ok := categoryCodes[category]
	if !ok {
		code = "Other"
	}
	if sub := Subcategory(category, keywords); sub != "" {
		return code + "-" + sub
	}
	return code
}

func formatKeywords(keywords []string) string {
	var formatted []string
	for _, kw := range keywords {
		if len(formatted) == maxFilenameKeywords {
			break
		}
		clean := nonAlphanumeric.ReplaceAllString(kw, "")
		if clean == "" {
			continue
		}
		formatted = append(formatted, strings.ToUpper(clean[:1])+strings.ToLower(clean[1:]))
	}
	return strings.Join(formatted, "_")
}

func sanitize(filename string) string {
	filename = invalidChars.ReplaceAllString(filename, "")
	filename = strings.ReplaceAll(filename, " ", "_")
	filename = repeatedScores.ReplaceAllString(filename, "_")
	filename = strings.Trim(filename, "_")

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if _, reserved := windowsReserved[strings.ToUpper(stem)]; reserved {
		filename = "File_" + filename
	}
	return filename
}

// truncate shortens the name part to the length cap, preferring an
// underscore boundary when one falls in the last 30% of the kept text.
func (n *Namer) truncate(filename, ext string) string {
	if len(filename) <= n.maxLength {
		return filename
	}

	available := n.maxLength - len(ext)
	name := strings.TrimSuffix(filename, ext)
	if len(name) > available {
		name = name[:available]
	}

	if cut := strings.LastIndex(name, "_"); cut > available*7/10 {
		name = name[:cut]
	}
	return name + ext
}

// ResolveDuplicate appends (1), (2), ... until the filename is free in
// the target directory.
func ResolveDuplicate(targetDir, filename string) (string, error) {
	if _, err := os.Stat(filepath.Join(targetDir, filename)); os.IsNotExist(err) {
		return filename, nil
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for i := 1; i <= maxDuplicateSuffix; i++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, i, ext)
		if _, err := os.Stat(filepath.Join(targetDir, candidate)); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", ErrTooManyDuplicates
}
