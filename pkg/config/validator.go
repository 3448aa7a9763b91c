package config

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap/zapcore"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Keywords.File) == "" {
		errors = append(errors, ValidationError{
			Field:   "keywords.file",
			Message: "keyword file is required",
		})
	}

	for _, ext := range c.Input.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errors = append(errors, ValidationError{
				Field:   "input.extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	for _, format := range c.Output.Formats {
		if format != "csv" && format != "xlsx" {
			errors = append(errors, ValidationError{
				Field:   "output.formats",
				Message: fmt.Sprintf("unsupported format: %s", format),
			})
		}
	}

	positive := []struct {
		field string
		value int
	}{
		{"extractor.min_line_length", c.Extractor.MinLineLength},
		{"extractor.min_chunk_length", c.Extractor.MinChunkLength},
		{"extractor.max_chunks", c.Extractor.MaxChunks},
		{"extractor.max_title_length", c.Extractor.MaxTitleLength},
		{"extractor.fallback_length", c.Extractor.FallbackLength},
		{"extractor.max_line_length", c.Extractor.MaxLineLength},
		{"processor.workers", c.Processor.Workers},
		{"scraper.max_depth", c.Scraper.MaxDepth},
		{"database.vector_dim", c.Database.VectorDim},
		{"database.batch_size", c.Database.BatchSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			errors = append(errors, ValidationError{
				Field:   p.field,
				Message: fmt.Sprintf("%s must be positive", p.field[strings.LastIndex(p.field, ".")+1:]),
			})
		}
	}

	if c.Scraper.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Scraper.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.timeout",
			Message: "timeout must be positive",
		})
	}

	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || u.Scheme == "" {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Embedder.Enabled {
		if u, err := url.Parse(c.Embedder.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "embedder.base_url",
				Message: "invalid Ollama base URL",
			})
		}
	}

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Message: "listen address is required",
		})
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be console or json",
		})
	}

	return errors
}
