// Package extractor recovers project records from the line structure of a
// document. Strategies run in a fixed order and the first one that yields
// records wins; a document-level fallback guarantees at least one record for
// any non-empty input.
package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xhad/projfilter/internal/models"
)

// StrategyName identifies a strategy in results, logs and metrics.
type StrategyName string

const (
	StrategyNone     StrategyName = "none"
	StrategyLabeled  StrategyName = "labeled"
	StrategyTable    StrategyName = "table"
	StrategyChunks   StrategyName = "chunks"
	StrategyFallback StrategyName = "fallback"
)

// Strategy turns document lines into records. An empty result means the
// strategy does not apply and the next one should run.
type Strategy interface {
	Name() StrategyName
	Extract(lines []string) []models.ProjectRecord
}

// Config holds the extraction thresholds. Zero fields take the defaults set
// by NewWithConfig.
type Config struct {
	MinLineLength  int // a chunk line must be longer than this
	MinChunkLength int // a joined chunk must be longer than this
	MaxChunks      int
	MaxTitleLength int
	FallbackLength int
	MaxLineLength  int
}

// Result is the outcome of one extraction: the strategy that produced the
// records, or StrategyNone when the input had no content.
type Result struct {
	Strategy StrategyName
	Records  []models.ProjectRecord
}

type Extractor struct {
	config     Config
	strategies []Strategy
}

// NewWithConfig returns an extractor with the standard strategy chain tuned by
// config.
func NewWithConfig(config Config) *Extractor {
	if config.MinLineLength == 0 {
		config.MinLineLength = 50
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 100
	}
	if config.MaxChunks == 0 {
		config.MaxChunks = 10
	}
	if config.MaxTitleLength == 0 {
		config.MaxTitleLength = 100
	}
	if config.FallbackLength == 0 {
		config.FallbackLength = 2000
	}
	if config.MaxLineLength == 0 {
		config.MaxLineLength = 10000
	}

	return &Extractor{
		config: config,
		strategies: []Strategy{
			newLabeledStrategy(),
			tableStrategy{},
			chunkStrategy{
				minLineLength:  config.MinLineLength,
				minChunkLength: config.MinChunkLength,
				maxChunks:      config.MaxChunks,
				maxTitleLength: config.MaxTitleLength,
			},
		},
	}
}

// New returns an extractor with the default thresholds.
func New() *Extractor {
	return NewWithConfig(Config{})
}

// Strategies returns the strategy chain in evaluation order.
func (e *Extractor) Strategies() []StrategyName {
	names := make([]StrategyName, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract runs the strategy chain over lines. Lines are trimmed and blank ones
// dropped, so whitespace-only input yields no records. The fallback
// description is built from the remaining lines joined by newlines; use
// ExtractText to keep the raw text instead.
func (e *Extractor) Extract(lines []string, source string) Result {
	lines = cleanLines(lines)
	return e.extract(lines, strings.Join(lines, "\n"), source)
}

// ExtractText splits text into lines and runs the strategy chain. Empty or
// whitespace-only text yields no records.
func (e *Extractor) ExtractText(text, source string) Result {
	return e.extract(SplitLines(text), text, source)
}

func (e *Extractor) extract(lines []string, raw, source string) Result {
	if len(lines) == 0 {
		return Result{Strategy: StrategyNone}
	}

	lines = e.capLines(lines)

	for _, s := range e.strategies {
		if records := s.Extract(lines); len(records) > 0 {
			return Result{Strategy: s.Name(), Records: records}
		}
	}

	return Result{
		Strategy: StrategyFallback,
		Records: []models.ProjectRecord{{
			Name:        fmt.Sprintf("Full Document Analysis - %s", source),
			Description: truncate(raw, e.config.FallbackLength),
		}},
	}
}

func (e *Extractor) capLines(lines []string) []string {
	var capped []string
	for i, line := range lines {
		if utf8.RuneCountInString(line) <= e.config.MaxLineLength {
			continue
		}
		if capped == nil {
			capped = make([]string, len(lines))
			copy(capped, lines)
		}
		capped[i] = truncate(line, e.config.MaxLineLength)
	}
	if capped == nil {
		return lines
	}
	return capped
}

// SplitLines splits text on newlines and returns the trimmed, non-empty lines.
func SplitLines(text string) []string {
	return cleanLines(strings.Split(text, "\n"))
}

func cleanLines(lines []string) []string {
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return cleaned
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
