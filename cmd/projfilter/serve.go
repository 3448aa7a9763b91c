package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/projfilter/pkg/metrics"
	"github.com/xhad/projfilter/pkg/pipeline"
	"github.com/xhad/projfilter/pkg/scraper"
	"github.com/xhad/projfilter/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	var withStore bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket analysis server",
		Long: `Run an HTTP server exposing the analyzer over a websocket.

Endpoints:
  /ws       websocket: {"type":"analyze","content":"..."}, {"type":"keywords"},
            {"type":"search","content":"..."} (needs --store)
  /health   liveness check
  /metrics  Prometheus metrics

Examples:
  # Serve on the configured address
  projfilter serve

  # Serve on port 9000 with similarity search over stored records
  projfilter serve --addr :9000 --store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if addr != "" {
				cfg.Server.Addr = addr
			}

			matcher, err := loadMatcher(cfg)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			recorder, err := metrics.New(reg)
			if err != nil {
				return err
			}

			p := pipeline.NewWithConfig(pipeline.PipelineConfig{
				Workers:   cfg.Processor.Workers,
				Extractor: cfg.ExtractorConfig(),
				Metrics:   recorder,
				Logger:    logger,
			}, matcher)

			serverConfig := server.Config{
				Addr: cfg.Server.Addr,
				Scraper: scraper.ScraperConfig{
					MaxDepth:       cfg.Scraper.MaxDepth,
					RateLimit:      cfg.Scraper.RateLimit,
					Timeout:        cfg.Scraper.Timeout,
					IgnorePatterns: cfg.Scraper.IgnorePatterns,
				},
				Gatherer: reg,
				Logger:   logger,
			}

			if withStore {
				rs, err := openStore(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer rs.Close()
				serverConfig.Searcher = rs
			}

			logger.Info("keywords loaded", zap.Int("count", matcher.Len()), zap.String("file", cfg.Keywords.File))
			return server.NewWSServer(serverConfig, p, matcher).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&withStore, "store", false, "Enable search over records in the configured database")

	return cmd
}
