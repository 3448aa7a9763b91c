package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/internal/types"
	"github.com/xhad/projfilter/pkg/config"
	"github.com/xhad/projfilter/pkg/llm"
	"github.com/xhad/projfilter/pkg/pipeline"
	"github.com/xhad/projfilter/pkg/report"
	"github.com/xhad/projfilter/pkg/scraper"
	"github.com/xhad/projfilter/pkg/source"
	"github.com/xhad/projfilter/pkg/store"
)

type analyzeOptions struct {
	inputDir  string
	outputDir string
	url       string
	formats   []string
	workers   int
	store     bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Extract project records and tag them with keywords",
		Long: `Analyze documents and write one CSV and one XLSX report per document.

Paths may be files or directories. Without paths the configured input
directory is used. A document that cannot be read or holds no text is
reported and skipped; the rest of the batch still runs.

Examples:
  # Analyze the default input directory
  projfilter analyze

  # Analyze two files and write reports to ./reports
  projfilter analyze -o reports a.txt b.html

  # Crawl a site two links deep and store results in PostgreSQL
  projfilter analyze --url https://example.org/ --store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.inputDir, "input-dir", "i", "", "Input directory (default from config)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Analyze a web page and the same-host pages it links to")
	cmd.Flags().StringSliceVar(&opts.formats, "format", nil, "Report formats: csv, xlsx")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Documents processed in parallel")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Store annotated records in the configured database")

	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if opts.inputDir != "" {
		cfg.Input.Dir = opts.inputDir
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	if len(opts.formats) > 0 {
		cfg.Output.Formats = opts.formats
	}
	if opts.workers > 0 {
		cfg.Processor.Workers = opts.workers
	}

	matcher, err := loadMatcher(cfg)
	if err != nil {
		fmt.Fprintln(out, color.RedString("✗ No keywords loaded. Exiting."))
		return err
	}
	fmt.Fprintln(out, color.GreenString("✓ Loaded %d keywords", matcher.Len()))

	writer, err := report.NewWriter(report.WriterConfig{
		Dir:     cfg.Output.Dir,
		Formats: cfg.Output.Formats,
	})
	if err != nil {
		return err
	}

	var recordStore types.RecordStore
	if opts.store {
		rs, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rs.Close()
		recordStore = rs
	}

	var docs []models.Document
	var failed []models.DocumentResult
	if opts.url != "" {
		docs, err = scrapeDocuments(ctx, cmd.ErrOrStderr(), cfg, logger, opts.url)
		if err != nil {
			return err
		}
	} else {
		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.Input.Dir}
		}
		docs, failed, err = readDocuments(paths, cfg.Input.Extensions)
		if err != nil {
			return err
		}
	}

	total := len(docs) + len(failed)
	if total == 0 {
		fmt.Fprintln(out, color.RedString("✗ No documents found"))
		return errors.New("no documents to analyze")
	}
	fmt.Fprintln(out, color.BlueString("\nFound %d document(s) to process", total))

	bar := getProgressBar(cmd.ErrOrStderr(), len(docs), "Analyzing documents...")
	p := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Workers:   cfg.Processor.Workers,
		Extractor: cfg.ExtractorConfig(),
		Logger:    logger,
		OnProgress: func(models.DocumentResult) {
			bar.Add(1)
		},
	}, matcher)

	results := p.Process(ctx, docs)
	bar.Finish()
	fmt.Fprintln(out)

	runID := uuid.NewString()
	processed := 0
	for _, result := range append(failed, results...) {
		if !reportResult(ctx, out, writer, recordStore, runID, result, logger) {
			continue
		}
		processed++
	}

	fmt.Fprintln(out, color.GreenString("\n✓ Successfully processed %d/%d documents", processed, total))
	fmt.Fprintf(out, "Results saved in: %s\n", absPath(cfg.Output.Dir))
	if recordStore != nil {
		fmt.Fprintf(out, "Run id: %s\n", runID)
	}

	if processed == 0 {
		return errors.New("no documents could be processed")
	}
	return nil
}

// reportResult prints the outcome of one document and writes its reports.
// It returns false when the document failed.
func reportResult(ctx context.Context, out io.Writer, writer types.ReportWriter, recordStore types.RecordStore,
	runID string, result models.DocumentResult, logger *zap.Logger) bool {
	name := result.Document.Name
	if result.Err != nil {
		fmt.Fprintln(out, color.RedString("✗ %s: %v", name, result.Err))
		return false
	}

	stats := result.Stats()
	fmt.Fprintln(out, color.GreenString("✓ Extracted %d project(s) from %s (%s)", stats.Total, name, result.Strategy))
	fmt.Fprintf(out, "   - Projects with name matches: %d\n", stats.NameMatches)
	fmt.Fprintf(out, "   - Projects with description matches: %d\n", stats.DescriptionMatches)
	fmt.Fprintf(out, "   - Total projects with any matches: %d\n", stats.AnyMatches)

	paths, err := writer.Write(result)
	if err != nil {
		fmt.Fprintln(out, color.RedString("✗ %s: %v", name, err))
		return false
	}
	for _, p := range paths {
		fmt.Fprintf(out, "   Saved %s\n", p)
	}

	if recordStore != nil {
		if err := recordStore.Store(ctx, runID, result); err != nil {
			logger.Warn("failed to store records", zap.String("document", name), zap.Error(err))
			fmt.Fprintln(out, color.YellowString("   ! records not stored: %v", err))
		}
	}

	return true
}

// readDocuments reads every discovered file. Unreadable files become failed
// results so the batch continues.
func readDocuments(paths []string, extensions []string) ([]models.Document, []models.DocumentResult, error) {
	files, err := source.Discover(paths, extensions)
	if err != nil {
		return nil, nil, err
	}

	var docs []models.Document
	var failed []models.DocumentResult
	for _, f := range files {
		doc, err := source.ReadFile(f)
		if err != nil {
			failed = append(failed, models.DocumentResult{
				Document: models.Document{Name: filepath.Base(f), Source: f},
				Err:      err,
			})
			continue
		}
		docs = append(docs, doc)
	}

	return docs, failed, nil
}

func scrapeDocuments(ctx context.Context, w io.Writer, cfg *config.Config, logger *zap.Logger, url string) ([]models.Document, error) {
	spinner := getSpinner(w, "Fetching pages...")

	pages := 0
	sc, err := scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:        url,
		MaxDepth:       cfg.Scraper.MaxDepth,
		RateLimit:      cfg.Scraper.RateLimit,
		Timeout:        cfg.Scraper.Timeout,
		IgnorePatterns: cfg.Scraper.IgnorePatterns,
		Logger:         logger,
		OnProgress: func(page string) {
			pages++
			spinner.Describe(color.CyanString("Fetching pages... (%d)", pages))
			spinner.Add(1)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scraper: %w", err)
	}

	docs, err := sc.Scrape(ctx, url)
	spinner.Finish()
	if err != nil && len(docs) == 0 {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if err != nil {
		logger.Warn("crawl stopped early", zap.String("url", url), zap.Error(err))
	}

	return docs, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.RecordStore, error) {
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return nil, errors.New("--store needs database.url or DATABASE_URL")
	}

	storeConfig := store.RecordStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
		Logger:     logger,
	}

	if cfg.Embedder.Enabled {
		emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Model:   cfg.Embedder.Model,
			BaseURL: cfg.Embedder.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		storeConfig.Embedder = emb
	}

	rs, err := store.NewWithConfig(ctx, storeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	return rs, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
