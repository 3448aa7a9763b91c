// Package main implements the projfilter CLI: extract project records from
// documents, tag them with keywords and export the results.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/projfilter/pkg/config"
	"github.com/xhad/projfilter/pkg/keywords"
	"github.com/xhad/projfilter/pkg/logging"
)

var version = "dev"

type rootOptions struct {
	configPath   string
	keywordsFile string
	logLevel     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "projfilter",
		Short: "Find keyword matches in project portfolio documents",
		Long: `projfilter reads project portfolio documents, recovers one record per
project (name and description) and tags each record with the keywords found
in it. Results are written as CSV and XLSX reports.

Examples:
  # Analyze every supported file in ./input
  projfilter analyze

  # Analyze specific files with a custom keyword list
  projfilter analyze -k livestock.txt portfolio.txt projects.html

  # Analyze a web page and the pages it links to
  projfilter analyze --url https://example.org/projects/`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&opts.keywordsFile, "keywords", "k", "", "Keywords file, one keyword per line")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newKeywordsCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	return rootCmd
}

// load reads the config file and applies the persistent flag overrides.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	if o.keywordsFile != "" {
		cfg.Keywords.File = o.keywordsFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	if verrs := cfg.Validate(); len(verrs) > 0 {
		errs := make([]error, 0, len(verrs))
		for _, v := range verrs {
			errs = append(errs, v)
		}
		return nil, nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

// loadMatcher builds the keyword matcher. A missing or empty keyword file is
// fatal: no document is processed without a vocabulary.
func loadMatcher(cfg *config.Config) (*keywords.Matcher, error) {
	matcher, err := keywords.NewFromFile(cfg.Keywords.File)
	if err != nil {
		if errors.Is(err, keywords.ErrNoKeywordSource) {
			return nil, fmt.Errorf("%w (run 'projfilter keywords --init' to create one)", err)
		}
		return nil, err
	}
	return matcher, nil
}
