package docrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/krishi-vaani/internal/domain/document"
)

const postgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS advisory_documents (
    id UUID PRIMARY KEY,
    session_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    file_type TEXT NOT NULL,
    content_type TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    size_bytes BIGINT NOT NULL,
    text_length INTEGER NOT NULL DEFAULT 0,
    storage_key TEXT NOT NULL,
    status TEXT NOT NULL,
    failure_reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_advisory_documents_session_id ON advisory_documents(session_id);
CREATE TABLE IF NOT EXISTS thread_documents (
    thread_id TEXT NOT NULL,
    document_id UUID NOT NULL REFERENCES advisory_documents(id) ON DELETE CASCADE,
    PRIMARY KEY (thread_id, document_id)
);
CREATE TABLE IF NOT EXISTS document_chunks (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES advisory_documents(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    token_count INTEGER NOT NULL,
    embedding vector(%d) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks(document_id);
`

const documentColumns = `
	d.id::text, d.session_id, d.filename, d.file_type, d.content_type, d.description,
	d.size_bytes, d.text_length, d.storage_key, d.status, d.failure_reason, d.created_at,
	COALESCE((SELECT array_agg(t.thread_id ORDER BY t.thread_id) FROM thread_documents t WHERE t.document_id = d.id), '{}'::text[])
`

// PostgresRepository stores documents in Postgres and searches chunks with
// pgvector cosine distance.
type PostgresRepository struct {
	pool *pgxpool.Pool
	dim  int
}

// NewPostgresRepository constructs the repository for embeddings of dim
// dimensions.
func NewPostgresRepository(pool *pgxpool.Pool, dim int) *PostgresRepository {
	return &PostgresRepository{pool: pool, dim: dim}
}

// Migrate creates the document tables and the vector extension.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if r.dim <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	if _, err := r.pool.Exec(ctx, fmt.Sprintf(postgresSchema, r.dim)); err != nil {
		return fmt.Errorf("migrate advisory_documents: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, doc document.Document) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO advisory_documents (id, session_id, filename, file_type, content_type, description, size_bytes, text_length, storage_key, status, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, doc.ID, doc.Owner, doc.Filename, string(doc.FileType), doc.ContentType, doc.Description, doc.SizeBytes, doc.TextLength, doc.StorageKey, string(doc.Status), doc.FailureReason, doc.CreatedAt)
	if err != nil {
		return err
	}
	for _, threadID := range doc.Threads {
		if _, err := tx.Exec(ctx, `
			INSERT INTO thread_documents (thread_id, document_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, threadID, doc.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status document.Status, failureReason string, textLength int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE advisory_documents
		SET status = $1, failure_reason = $2, text_length = $3
		WHERE id::text = $4
	`, string(status), failureReason, textLength, id)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, owner, id string) (document.Document, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+`
		FROM advisory_documents d
		WHERE d.id::text = $1 AND d.session_id = $2
	`, id, owner)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, false, nil
	}
	if err != nil {
		return document.Document{}, false, err
	}
	return doc, true, nil
}

func (r *PostgresRepository) List(ctx context.Context, owner, threadID string) ([]document.Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+`
		FROM advisory_documents d
		WHERE d.session_id = $1
		  AND ($2 = '' OR EXISTS (SELECT 1 FROM thread_documents t WHERE t.document_id = d.id AND t.thread_id = $2))
		ORDER BY d.created_at DESC, d.id ASC
	`, owner, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]document.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Associate(ctx context.Context, owner, id, threadID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO thread_documents (thread_id, document_id)
		SELECT $3, d.id FROM advisory_documents d
		WHERE d.id::text = $1 AND d.session_id = $2
		ON CONFLICT DO NOTHING
	`, id, owner, threadID)
	return err
}

func (r *PostgresRepository) DetachThread(ctx context.Context, owner, threadID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM thread_documents t
		USING advisory_documents d
		WHERE t.document_id = d.id AND d.session_id = $1 AND t.thread_id = $2
	`, owner, threadID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRepository) InsertChunks(ctx context.Context, chunks []document.Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(`
			INSERT INTO document_chunks (id, document_id, chunk_index, content, token_count, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, chunk.ID, chunk.DocumentID, chunk.Index, chunk.Content, chunk.TokenCount, pgvector.NewVector(chunk.Embedding), chunk.CreatedAt)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *PostgresRepository) Search(ctx context.Context, owner string, embedding []float32, filter document.SearchFilter) ([]document.Hit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 64
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.document_id::text, d.filename, d.file_type, c.chunk_index, c.content,
			1 - (c.embedding <=> $1) AS score
		FROM document_chunks c
		JOIN advisory_documents d ON d.id = c.document_id
		WHERE d.session_id = $2
		  AND d.status = 'processed'
		  AND ($3 = '' OR EXISTS (SELECT 1 FROM thread_documents t WHERE t.document_id = d.id AND t.thread_id = $3))
		  AND 1 - (c.embedding <=> $1) >= $4
		ORDER BY c.embedding <=> $1 ASC, c.document_id ASC, c.chunk_index ASC
		LIMIT $5
	`, pgvector.NewVector(embedding), owner, filter.ThreadID, filter.MinScore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []document.Hit
	for rows.Next() {
		var (
			hit      document.Hit
			fileType string
		)
		if err := rows.Scan(&hit.DocumentID, &hit.Filename, &fileType, &hit.ChunkIndex, &hit.Snippet, &hit.Score); err != nil {
			return nil, err
		}
		hit.FileType = document.FileType(fileType)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func scanDocument(row pgx.Row) (document.Document, error) {
	var (
		doc      document.Document
		fileType string
		status   string
	)
	err := row.Scan(&doc.ID, &doc.Owner, &doc.Filename, &fileType, &doc.ContentType, &doc.Description,
		&doc.SizeBytes, &doc.TextLength, &doc.StorageKey, &status, &doc.FailureReason, &doc.CreatedAt, &doc.Threads)
	if err != nil {
		return document.Document{}, err
	}
	doc.FileType = document.FileType(fileType)
	doc.Status = document.Status(status)
	return doc, nil
}

var _ document.Repository = (*PostgresRepository)(nil)
