package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// EmbedderConfig configures the Ollama embedding client.
type EmbedderConfig struct {
	Model     string
	BaseURL   string  // Ollama server URL
	RateLimit float64 // requests per second
}

// Embedder turns record descriptions into vectors for the store.
type Embedder struct {
	config  EmbedderConfig
	model   *ollama.LLM
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 10
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		config:  config,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

func (e *Embedder) Model() string {
	return e.config.Model
}

// CreateEmbedding returns one vector per input text.
func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.model.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, errors.New("embedding count does not match input count")
	}

	return vectors, nil
}
