package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

// CatalogRepository keeps document lifecycle state and the document->chunk
// relation in Postgres. Deleted documents stay as tombstones (status=deleted)
// and are invisible to every read path.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func OpenDB(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	chunk_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_chunks (
	chunk_id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Create registers a document. Re-ingesting an existing ID resets it to the
// incoming (pending) state instead of failing, so the same source can be
// uploaded again after fixing its content.
func (r *CatalogRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, source, mime_type, storage_path, status, error_message, chunk_count, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
	source = EXCLUDED.source,
	mime_type = EXCLUDED.mime_type,
	storage_path = EXCLUDED.storage_path,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	chunk_count = 0,
	updated_at = EXCLUDED.updated_at
`,
		doc.ID, doc.Source, doc.MimeType, doc.StoragePath, string(doc.Status), doc.Error,
		doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, source, mime_type, storage_path, status, error_message, chunk_count, created_at, updated_at
FROM documents
WHERE id = $1 AND status <> $2
`, id, string(domain.StatusDeleted))

	var doc domain.Document
	var status string

	err := row.Scan(
		&doc.ID, &doc.Source, &doc.MimeType, &doc.StoragePath,
		&status, &doc.Error, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *CatalogRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND status <> $5
`, id, string(status), errMessage, time.Now().UTC(), string(domain.StatusDeleted))
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *CatalogRepository) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM documents WHERE status <> $1
`, string(domain.StatusDeleted)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// RegisterChunks replaces the document's chunk rows in one transaction and
// records the new chunk count, so a re-indexed document never exposes a mix
// of old and new chunks.
func (r *CatalogRepository) RegisterChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO document_chunks (chunk_id, document_id, seq, start_offset, end_offset)
VALUES ($1,$2,$3,$4,$5)
`, chunk.ID, chunk.DocumentID, chunk.Seq, chunk.Start, chunk.End); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE documents SET chunk_count = $2, updated_at = $3 WHERE id = $1
`, documentID, len(chunks), time.Now().UTC()); err != nil {
		return fmt.Errorf("update chunk count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ChunksOf(ctx context.Context, documentID string) ([]string, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1 AND status <> $2)
`, documentID, string(domain.StatusDeleted)).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "list chunks", fmt.Errorf("id=%s", documentID))
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT chunk_id FROM document_chunks WHERE document_id = $1 ORDER BY seq
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return ids, nil
}

// RemoveDocument drops the chunk relation and leaves a tombstone row, so the
// ID stays reserved and re-ingestion under it behaves like a fresh upload.
func (r *CatalogRepository) RemoveDocument(ctx context.Context, documentID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
UPDATE documents
SET status = $2, chunk_count = 0, updated_at = $3
WHERE id = $1 AND status <> $2
`, documentID, string(domain.StatusDeleted), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark document deleted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "remove document", fmt.Errorf("id=%s", documentID))
	}

	rows, err := tx.QueryContext(ctx, `
DELETE FROM document_chunks WHERE document_id = $1 RETURNING chunk_id
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	defer rows.Close()

	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan removed chunk id: %w", err)
		}
		removed = append(removed, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate removed chunks: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete tx: %w", err)
	}
	return removed, nil
}
