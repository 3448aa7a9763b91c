package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/xhad/projfilter/internal/models"
	"github.com/xhad/projfilter/internal/types"
)

// ErrNoEmbedder is returned by Similar when the store has no embedder.
var ErrNoEmbedder = errors.New("store has no embedder configured")

type RecordStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
	Embedder    types.Embedder
	Logger      *zap.Logger
}

// StoredRecord is an annotated record as persisted for one run.
type StoredRecord struct {
	ID       string
	RunID    string
	Source   string
	Strategy string
	Position int
	models.AnnotatedRecord
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

type RecordStore struct {
	config RecordStoreConfig
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
}

func applyDefaults(config RecordStoreConfig) RecordStoreConfig {
	if config.TableName == "" {
		config.TableName = "project_records"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return config
}

func NewWithConfig(ctx context.Context, config RecordStoreConfig) (*RecordStore, error) {
	config = applyDefaults(config)

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rs := &RecordStore{
		config: config,
		pool:   pool,
		table:  pgx.Identifier{config.TableName}.Sanitize(),
		logger: config.Logger,
	}

	if err := rs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return rs, nil
}

func (rs *RecordStore) initialize(ctx context.Context) error {
	if _, err := rs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			source TEXT NOT NULL,
			strategy TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			name_keywords TEXT[] NOT NULL DEFAULT '{}',
			description_keywords TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(%d),
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, rs.table, rs.config.VectorDim)

	if _, err := rs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s
		ON %s (run_id)`,
		pgx.Identifier{rs.config.TableName + "_run_idx"}.Sanitize(), rs.table)

	if _, err := rs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Store writes every record of result under runID in one transaction.
// Descriptions are embedded first when an embedder is configured.
func (rs *RecordStore) Store(ctx context.Context, runID string, result models.DocumentResult) error {
	if len(result.Records) == 0 {
		return nil
	}

	embeddings, err := rs.embedDescriptions(ctx, result.Records)
	if err != nil {
		return err
	}

	tx, err := rs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, source, strategy, position, name, description,
			name_keywords, description_keywords, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rs.table)

	metadata := map[string]interface{}{"document_id": result.Document.ID}
	for k, v := range result.Document.Metadata {
		metadata[k] = v
	}

	for start := 0; start < len(result.Records); start += rs.config.BatchSize {
		end := min(start+rs.config.BatchSize, len(result.Records))

		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			record := result.Records[i]

			var embedding *pgvector.Vector
			if embeddings != nil {
				v := pgvector.NewVector(embeddings[i])
				embedding = &v
			}

			batch.Queue(stmt,
				uuid.NewString(),
				runID,
				result.Document.Name,
				result.Strategy,
				i,
				record.Name,
				record.Description,
				keywordArray(record.NameKeywords),
				keywordArray(record.DescriptionKeywords),
				embedding,
				metadata,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	rs.logger.Debug("records stored",
		zap.String("run_id", runID),
		zap.String("source", result.Document.Name),
		zap.Int("records", len(result.Records)),
	)
	return nil
}

// embedDescriptions returns one vector per record, or nil without an embedder.
func (rs *RecordStore) embedDescriptions(ctx context.Context, records []models.AnnotatedRecord) ([][]float32, error) {
	if rs.config.Embedder == nil {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(records))
	for start := 0; start < len(records); start += rs.config.BatchSize {
		end := min(start+rs.config.BatchSize, len(records))

		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Description)
		}

		batch, err := rs.config.Embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed descriptions: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d descriptions", len(batch), len(texts))
		}
		for _, v := range batch {
			if len(v) != rs.config.VectorDim {
				return nil, fmt.Errorf("embedding has %d dimensions, table expects %d", len(v), rs.config.VectorDim)
			}
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

const selectColumns = `id, run_id, source, strategy, position, name, description,
	name_keywords, description_keywords, metadata, created_at`

// ListMatched returns the records of runID with at least one keyword hit,
// in document and position order. An empty runID lists every run.
func (rs *RecordStore) ListMatched(ctx context.Context, runID string) ([]StoredRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE ($1 = '' OR run_id = $1)
			AND (cardinality(name_keywords) > 0 OR cardinality(description_keywords) > 0)
		ORDER BY created_at, source, position`,
		selectColumns, rs.table)

	rows, err := rs.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return collectRecords(rows)
}

// Similar returns the stored records whose description embedding is closest
// to text.
func (rs *RecordStore) Similar(ctx context.Context, text string, limit int) ([]StoredRecord, error) {
	if rs.config.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if limit <= 0 {
		limit = rs.config.SearchLimit
	}

	vectors, err := rs.config.Embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		selectColumns, rs.table)

	rows, err := rs.pool.Query(ctx, query, pgvector.NewVector(vectors[0]), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar records: %w", err)
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]StoredRecord, error) {
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var r StoredRecord
		var nameKeywords, descriptionKeywords []string
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.Source,
			&r.Strategy,
			&r.Position,
			&r.Name,
			&r.Description,
			&nameKeywords,
			&descriptionKeywords,
			&r.Metadata,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.NameKeywords = models.KeywordSet(nameKeywords)
		r.DescriptionKeywords = models.KeywordSet(descriptionKeywords)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return records, nil
}

// keywordArray keeps empty sets as '{}' rather than NULL.
func keywordArray(set models.KeywordSet) []string {
	if set == nil {
		return []string{}
	}
	return []string(set)
}

func (rs *RecordStore) Close() {
	if rs.pool != nil {
		rs.pool.Close()
	}
}
