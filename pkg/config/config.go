package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xhad/projfilter/pkg/extractor"
)

type Config struct {
	Keywords struct {
		File string `yaml:"file"`
	} `yaml:"keywords"`

	Input struct {
		Dir        string   `yaml:"dir"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"input"`

	Output struct {
		Dir     string   `yaml:"dir"`
		Formats []string `yaml:"formats"`
	} `yaml:"output"`

	Extractor struct {
		MinLineLength  int `yaml:"min_line_length"`
		MinChunkLength int `yaml:"min_chunk_length"`
		MaxChunks      int `yaml:"max_chunks"`
		MaxTitleLength int `yaml:"max_title_length"`
		FallbackLength int `yaml:"fallback_length"`
		MaxLineLength  int `yaml:"max_line_length"`
	} `yaml:"extractor"`

	Processor struct {
		Workers int `yaml:"workers"`
	} `yaml:"processor"`

	Scraper struct {
		MaxDepth       int           `yaml:"max_depth"`
		RateLimit      float64       `yaml:"rate_limit"`
		Timeout        time.Duration `yaml:"timeout"`
		IgnorePatterns []string      `yaml:"ignore_patterns"`
	} `yaml:"scraper"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Embedder struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"embedder"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LoadConfig reads path, or the first config file found in the default
// locations when path is empty. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/projfilter/config.yaml"),
			"/etc/projfilter/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Keywords.File == "" {
		config.Keywords.File = "keywords.txt"
	}

	if config.Input.Dir == "" {
		config.Input.Dir = "input"
	}
	if len(config.Input.Extensions) == 0 {
		config.Input.Extensions = []string{".txt", ".text", ".md", ".html", ".htm"}
	}

	if config.Output.Dir == "" {
		config.Output.Dir = "output"
	}
	if len(config.Output.Formats) == 0 {
		config.Output.Formats = []string{"csv", "xlsx"}
	}

	if config.Extractor.MinLineLength == 0 {
		config.Extractor.MinLineLength = 50
	}
	if config.Extractor.MinChunkLength == 0 {
		config.Extractor.MinChunkLength = 100
	}
	if config.Extractor.MaxChunks == 0 {
		config.Extractor.MaxChunks = 10
	}
	if config.Extractor.MaxTitleLength == 0 {
		config.Extractor.MaxTitleLength = 100
	}
	if config.Extractor.FallbackLength == 0 {
		config.Extractor.FallbackLength = 2000
	}
	if config.Extractor.MaxLineLength == 0 {
		config.Extractor.MaxLineLength = 10000
	}

	if config.Processor.Workers == 0 {
		config.Processor.Workers = 4
	}

	if config.Scraper.MaxDepth == 0 {
		config.Scraper.MaxDepth = 1
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "project_records"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}
	if config.Embedder.Model == "" {
		config.Embedder.Model = "nomic-embed-text:latest"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

func mergeWithEnv(config *Config) {
	if file := os.Getenv("PROJFILTER_KEYWORDS"); file != "" {
		config.Keywords.File = file
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedder.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}

// ExtractorConfig returns the extractor thresholds.
func (c *Config) ExtractorConfig() extractor.Config {
	return extractor.Config{
		MinLineLength:  c.Extractor.MinLineLength,
		MinChunkLength: c.Extractor.MinChunkLength,
		MaxChunks:      c.Extractor.MaxChunks,
		MaxTitleLength: c.Extractor.MaxTitleLength,
		FallbackLength: c.Extractor.FallbackLength,
		MaxLineLength:  c.Extractor.MaxLineLength,
	}
}
