// Package vision analyzes screenshots with Claude: one request yields
// a description, a category, ranked keywords, and a confidence score.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoAPIKey indicates no Anthropic API key was configured.
	ErrNoAPIKey = errors.New("anthropic api key not set")

	// ErrImageNotFound indicates the image path does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrImageTooLarge indicates the image exceeds the size limit.
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

// =============================================================================
// Analysis
// =============================================================================

// Analysis is the structured result of analyzing one screenshot.
type Analysis struct {
	Description string
	Category    store.Category
	Keywords    []string
	Confidence  float64
}

// Analyzer produces an Analysis for an image, optionally using
// already-extracted OCR text as a hint.
type Analyzer interface {
	Analyze(ctx context.Context, path string, ocrText string) (*Analysis, error)
}

// =============================================================================
// ClaudeAnalyzer
// =============================================================================

// Config controls the Claude analyzer.
type Config struct {
	// APIKey overrides the ANTHROPIC_API_KEY environment variable.
	APIKey string

	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int

	// MaxImageSizeMB rejects larger files before uploading.
	MaxImageSizeMB int
}

// ClaudeAnalyzer calls the Anthropic Messages API with the image and a
// classification prompt.
type ClaudeAnalyzer struct {
	client *anthropic.Client
	config Config
	logger *slog.Logger
}

func NewClaudeAnalyzer(config Config, logger *slog.Logger) (*ClaudeAnalyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if config.Model == "" {
		config.Model = "claude-haiku-4-5-20251001"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1000
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.MaxImageSizeMB <= 0 {
		config.MaxImageSizeMB = 50
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &ClaudeAnalyzer{
		client: &client,
		config: config,
		logger: logger,
	}, nil
}

const analysisPrompt = `Analyze this screenshot and classify it into ONE category.

Categories:
- ERROR: Error messages, stack traces, exceptions, bug reports
- CODE: Source code, IDE, terminal, git diffs, configs
- UI: Web/app interfaces, designs, mockups, forms
- DOCUMENTATION: Docs, diagrams, flowcharts, architecture
- DATA: Tables, charts, reports, spreadsheets, analytics
- COMMUNICATION: Slack, email, messages, comments
- OTHER: Anything that doesn't fit above

Required output (JSON only):
{
  "description": "1-2 sentence description of what the image shows",
  "category": "ERROR|CODE|UI|DOCUMENTATION|DATA|COMMUNICATION|OTHER",
  "keywords": ["5-10", "important", "keywords", "sorted", "by", "relevance"],
  "confidence": 0.0-1.0
}

Keyword guidelines: extract error codes, function names, and technical
terms; prefer specific over generic. Return ONLY valid JSON.`

// Analyze uploads the image with the classification prompt and parses
// the structured reply. Transient API failures retry with exponential
// backoff.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, path string, ocrText string) (*Analysis, error) {
	imageData, mediaType, err := a.encodeImage(path)
	if err != nil {
		return nil, err
	}

	prompt := analysisPrompt
	if ocrText != "" {
		prompt += "\n\nOCR extracted text:\n" + truncate(ocrText, 1000)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: int64(a.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, imageData),
				anthropic.NewTextBlock(prompt),
			),
		},
	}

	msg, err := a.callWithRetry(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("vision analysis: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	analysis := parseAnalysis(text.String())
	a.logger.Info("vision analysis complete",
		"path", filepath.Base(path),
		"category", analysis.Category,
		"confidence", analysis.Confidence)
	return analysis, nil
}

func (a *ClaudeAnalyzer) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<(attempt-1)) * time.Second
			a.logger.Warn("vision request failed, retrying",
				"attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		msg, err := a.client.Messages.New(callCtx, params)
		cancel()
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

func (a *ClaudeAnalyzer) encodeImage(path string) (data, mediaType string, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", "", fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}
	if err != nil {
		return "", "", err
	}

	maxBytes := int64(a.config.MaxImageSizeMB) * 1024 * 1024
	if info.Size() > maxBytes {
		return "", "", fmt.Errorf("%w: %d bytes (max %dMB)",
			ErrImageTooLarge, info.Size(), a.config.MaxImageSizeMB)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	mediaType, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mediaType = "image/jpeg"
	}
	return base64.StdEncoding.EncodeToString(raw), mediaType, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
