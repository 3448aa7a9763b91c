// Package pipeline runs extraction and keyword enrichment over a batch of
// documents. A failing document never stops the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/pkg/enricher"
	"github.com/xhad/projfilter/pkg/extractor"
	"github.com/xhad/projfilter/pkg/keywords"
	"github.com/xhad/projfilter/pkg/logging"
	"github.com/xhad/projfilter/pkg/metrics"
)

// ErrNoText is reported for documents without any recoverable text.
var ErrNoText = errors.New("no text could be recovered from this document")

type PipelineConfig struct {
	Workers    int
	Extractor  extractor.Config
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
	OnProgress func(result models.DocumentResult) // called once per finished document
}

type Pipeline struct {
	config    PipelineConfig
	extractor *extractor.Extractor
	enricher  *enricher.Enricher
	logger    *zap.Logger
}

func NewWithConfig(config PipelineConfig, matcher *keywords.Matcher) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = 4
	}

	return &Pipeline{
		config:    config,
		extractor: extractor.NewWithConfig(config.Extractor),
		enricher:  enricher.New(matcher),
		logger:    logging.OrNop(config.Logger),
	}
}

// ProcessDocument extracts and annotates the records of a single document.
func (p *Pipeline) ProcessDocument(doc models.Document) (result models.DocumentResult) {
	result.Document = doc

	defer func() {
		if r := recover(); r != nil {
			result.Records = nil
			result.Err = fmt.Errorf("processing %s: %v", doc.Name, r)
		}
		p.config.Metrics.ObserveResult(result)
	}()

	if strings.TrimSpace(doc.Content) == "" {
		result.Err = ErrNoText
		return result
	}

	extracted := p.extractor.ExtractText(doc.Content, doc.Name)
	if extracted.Strategy != extractor.StrategyLabeled {
		p.logger.Debug("no structured project data found",
			zap.String("document", doc.Name),
			zap.String("strategy", string(extracted.Strategy)))
	}

	result.Strategy = string(extracted.Strategy)
	result.Records = p.enricher.EnrichAll(extracted.Records)

	return result
}

// Process handles docs with a bounded number of workers and returns one
// result per document in input order.
func (p *Pipeline) Process(ctx context.Context, docs []models.Document) []models.DocumentResult {
	results := make([]models.DocumentResult, len(docs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var progressMu sync.Mutex

	for w := 0; w < p.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.ProcessDocument(docs[i])
				p.report(results[i], &progressMu)
			}
		}()
	}

	// Documents never handed to a worker still count as failed, so progress
	// and metrics always see every document.
	skip := func(i int) {
		results[i] = models.DocumentResult{Document: docs[i], Err: ctx.Err()}
		p.config.Metrics.ObserveResult(results[i])
		p.report(results[i], &progressMu)
	}

	cancelled := false
	for i := range docs {
		if cancelled {
			skip(i)
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = true
			skip(i)
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pipeline) report(result models.DocumentResult, mu *sync.Mutex) {
	if result.Err != nil {
		p.logger.Warn("document failed",
			zap.String("document", result.Document.Name),
			zap.Error(result.Err))
	} else {
		stats := result.Stats()
		p.logger.Info("document processed",
			zap.String("document", result.Document.Name),
			zap.String("strategy", result.Strategy),
			zap.Int("records", stats.Total),
			zap.Int("name_matches", stats.NameMatches),
			zap.Int("description_matches", stats.DescriptionMatches),
			zap.Int("any_matches", stats.AnyMatches))
	}

	if p.config.OnProgress != nil {
		mu.Lock()
		p.config.OnProgress(result)
		mu.Unlock()
	}
}
