package types

import (
	"context"

	"github.com/xhad/projfilter/internal/models"
)

// Core interfaces
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type RecordStore interface {
	Store(ctx context.Context, runID string, result models.DocumentResult) error
	Close()
}

type ReportWriter interface {
	Write(result models.DocumentResult) ([]string, error)
}
